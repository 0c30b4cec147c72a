// Package resample converts decoded recordings to the output sample rate.
//
// Conversion is rational (up/down) with a Kaiser-windowed sinc prototype
// split into polyphase branches. A Resampler streams; Source converts a
// whole buffer.Source and compensates the filter delay so the converted
// recording stays aligned with the original.
//
//	mode            taps/phase   nominal stopband
//	QualityFast     16           ~55 dB
//	QualityBalanced 32           ~75 dB
//	QualityBest     64           ~90 dB
package resample
