package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-stretch/internal/config"
	"github.com/cwbudde/algo-stretch/internal/device"
	"github.com/cwbudde/algo-stretch/player"
)

var errQuit = errors.New("quit")

const helpText = `commands:
  play [t]     start, optionally from position t
  stop         stop (keeps the position)
  seek t       jump to t, +t/-t relative, or 30% of the track
  loop a b     loop between a and b
  mark         mark a loop end at the position; the second mark loops
               between both and plays from the first
  unloop       remove the loop
  rate r       set the playback rate
  vol db       set the output gain
  pos          print position, rate and state
  load file    open another file
  quit         exit
times are seconds (12.5) or m:ss (1:05)
`

// session executes interactive commands against the controller the stream
// is playing.
type session struct {
	ctrl   *player.Controller
	stream *device.Stream
	cfg    *config.Config
	out    io.Writer

	// mark is the first loop end set by the mark command, or -1.
	mark float64
}

func newSession(ctrl *player.Controller, stream *device.Stream, cfg *config.Config, out io.Writer) *session {
	s := &session{stream: stream, cfg: cfg, out: out, mark: -1}
	s.attach(ctrl)
	return s
}

func (s *session) attach(ctrl *player.Controller) {
	ctrl.OnStop(func(reason player.StopReason) {
		if reason != player.StopRequested {
			log.Printf("stopped: %s", reason)
		}
	})
	s.ctrl = ctrl
	s.mark = -1
}

func (s *session) run(in io.Reader) error {
	fmt.Fprint(s.out, helpText)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		err := s.execute(sc.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}

	return sc.Err()
}

// execute runs one command line. It returns errQuit for quit.
func (s *session) execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	if s.cfg.Logging.Verbose {
		log.Printf("command: %s", strings.Join(fields, " "))
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "play":
		if len(args) == 0 {
			s.ctrl.Play()
			return nil
		}
		t, err := player.ParseTime(args[0])
		if err != nil {
			return err
		}
		s.ctrl.PlayFrom(t)

	case "stop":
		s.ctrl.Stop()

	case "seek":
		if len(args) != 1 {
			return fmt.Errorf("%w: need one time value", player.ErrInvalidTime)
		}
		t, err := s.seekTarget(args[0])
		if err != nil {
			return err
		}
		s.ctrl.Seek(t)

	case "mark":
		return s.markLoop()

	case "loop":
		if len(args) != 2 {
			return fmt.Errorf("loop needs start and end")
		}
		a, err := player.ParseTime(args[0])
		if err != nil {
			return err
		}
		b, err := player.ParseTime(args[1])
		if err != nil {
			return err
		}
		return s.ctrl.Loop(a, b)

	case "unloop":
		s.ctrl.Unloop()

	case "rate":
		if len(args) != 1 {
			return fmt.Errorf("rate needs a value")
		}
		r, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("%w: %q", player.ErrInvalidRate, args[0])
		}
		return s.ctrl.SetPlaybackRate(r)

	case "vol", "volume":
		if len(args) != 1 {
			return fmt.Errorf("vol needs a value in dB")
		}
		db, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid volume %q", args[0])
		}
		s.stream.SetVolumeDB(db)

	case "pos", "status":
		fmt.Fprintln(s.out, s.status())

	case "load":
		if len(args) != 1 {
			return fmt.Errorf("load needs a file")
		}
		return s.load(args[0])

	case "help", "?":
		fmt.Fprint(s.out, helpText)

	case "quit", "exit", "q":
		s.ctrl.Stop()
		return errQuit

	default:
		return fmt.Errorf("unknown command %q (type help)", cmd)
	}

	return nil
}

func (s *session) status() string {
	line := fmt.Sprintf("%s / %s  rate %.3g  %s",
		player.FormatTime(s.ctrl.Position()), player.FormatTime(s.ctrl.Duration()), s.ctrl.PlaybackRate(), s.ctrl.State())

	if r, ok := s.ctrl.LoopRegion(); ok {
		line += fmt.Sprintf("  loop %s-%s", player.FormatTime(r.Start), player.FormatTime(r.End))
	}

	return line
}

// load replaces the playing controller. The device runs at a fixed sample
// rate, so files at another rate are resampled to it. The playback rate
// carries over; loop and position do not.
func (s *session) load(path string) error {
	cfg := *s.cfg
	cfg.Playback.Rate = s.ctrl.PlaybackRate()
	cfg.Playback.Start = 0
	cfg.Playback.LoopStart, cfg.Playback.LoopEnd = 0, 0

	next, err := openController(path, &cfg, s.ctrl.SampleRate())
	if err != nil {
		return err
	}

	wasPlaying := s.ctrl.IsPlaying()

	prev := s.stream.Swap(next)
	if prev != nil {
		prev.Stop()
	}
	s.attach(next)

	if wasPlaying {
		next.Play()
	}

	return nil
}

// seekTarget resolves a seek argument against the current position:
// "+t" and "-t" are relative, "p%" is a fraction of the track and anything
// else is an absolute time. The controller clamps the result.
func (s *session) seekTarget(arg string) (float64, error) {
	if pct, ok := strings.CutSuffix(arg, "%"); ok {
		p, err := strconv.ParseFloat(pct, 64)
		if err != nil || math.IsNaN(p) || p < 0 || p > 100 {
			return 0, fmt.Errorf("%w: %q is not a percentage in [0, 100]", player.ErrInvalidTime, arg)
		}
		return s.ctrl.Duration() * p / 100, nil
	}

	sign := 0.0
	switch {
	case strings.HasPrefix(arg, "+"):
		sign = 1
	case strings.HasPrefix(arg, "-"):
		sign = -1
	}
	if sign == 0 {
		return player.ParseTime(arg)
	}

	d, err := player.ParseTime(arg[1:])
	if err != nil {
		return 0, err
	}
	return s.ctrl.Position() + sign*d, nil
}

// markLoop records the playback position. The second call loops between
// both marks and plays from the earlier one.
func (s *session) markLoop() error {
	pos := s.ctrl.Position()
	if s.mark < 0 {
		s.mark = pos
		fmt.Fprintf(s.out, "mark %s\n", player.FormatTime(pos))
		return nil
	}

	start, end := math.Min(s.mark, pos), math.Max(s.mark, pos)
	s.mark = -1
	if err := s.ctrl.Loop(start, end); err != nil {
		return err
	}

	if s.ctrl.IsPlaying() {
		s.ctrl.Seek(start)
	} else {
		s.ctrl.PlayFrom(start)
	}
	fmt.Fprintf(s.out, "loop %s-%s\n", player.FormatTime(start), player.FormatTime(end))

	return nil
}
