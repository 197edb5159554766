package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/llehouerou/pulse/internal/config"
	"github.com/llehouerou/pulse/internal/decoder"
	"github.com/llehouerou/pulse/internal/log"
	"github.com/llehouerou/pulse/internal/pipeline"
	"github.com/llehouerou/pulse/internal/session"
	"github.com/llehouerou/pulse/internal/surface"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pulse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Configure(log.Config{Level: cfg.Log.Level})
	logger := log.WithComponent("main")

	sess, err := session.Open()
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer sess.Close()

	audio := cfg.GetAudioConfig()
	if err := decoder.InitSpeaker(audio.SampleRate, time.Duration(audio.BufferMS)*time.Millisecond); err != nil {
		return fmt.Errorf("initialising speaker: %w", err)
	}

	surfCfg := cfg.GetSurfaceConfig()
	format, err := surface.ParseFormat(surfCfg.Format)
	if err != nil {
		return err
	}
	alloc := surface.NewAllocator(surface.Settings{
		Width:  surfCfg.Width,
		Height: surfCfg.Height,
		Format: format,
	})

	pc := cfg.GetPipelineConfig()
	prepareTimeout, retryDelay, preDelay, settleDelay, seekSettle, seekReadyBudget := pc.Durations()
	p := pipeline.New(
		decoder.NewBeep("a"),
		decoder.NewBeep("b"),
		alloc,
		pipeline.Config{
			PrepareTimeout:  prepareTimeout,
			MaxRetries:      pc.MaxRetries,
			RetryDelay:      retryDelay,
			PreDelay:        preDelay,
			SettleDelay:     settleDelay,
			SeekSettle:      seekSettle,
			SeekReadyBudget: seekReadyBudget,
		},
	)
	defer p.Close()

	if prev, err := sess.Load(); err == nil && prev != nil {
		logger.Info().Str("source", prev.Source).Dur("position", prev.Position).
			Msg("previous session available, use 'resume' to continue")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		p.Close()
		os.Exit(0)
	}()

	fmt.Println("pulse commands: load <path> [loop] | resume | play | pause | stop | seek <secs> | pos | quit")
	return commandLoop(os.Stdin, sess, p)
}

func commandLoop(in *os.File, sess session.Interface, p *pipeline.Pipeline) error {
	var current string
	var looping bool

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "load":
			if len(fields) < 2 {
				fmt.Println("usage: load <path> [loop]")
				continue
			}
			source := fields[1]
			loop := len(fields) > 2 && fields[2] == "loop"
			current, looping = source, loop
			p.Load(source, loop, func() {
				p.Play()
				fmt.Printf("now playing %s\n", source)
			})

		case "resume":
			prev, err := sess.Load()
			if err != nil || prev == nil {
				fmt.Println("no previous session")
				continue
			}
			current, looping = prev.Source, prev.Loop
			pos := prev.Position
			p.Load(prev.Source, prev.Loop, func() {
				p.Play()
				p.Seek(pos)
				fmt.Printf("resumed %s at %s\n", prev.Source, pos)
			})

		case "play":
			p.Play()

		case "pause":
			p.Pause()

		case "stop":
			p.Stop()

		case "seek":
			if len(fields) < 2 {
				fmt.Println("usage: seek <secs>")
				continue
			}
			secs, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				fmt.Printf("bad seek target: %v\n", err)
				continue
			}
			p.Seek(time.Duration(secs * float64(time.Second)))

		case "pos":
			fmt.Printf("%s / %s\n", p.Position().Round(time.Second), p.Duration().Round(time.Second))

		case "quit", "exit":
			if current != "" {
				_ = sess.Save(session.Snapshot{Source: current, Loop: looping, Position: p.Position()})
			}
			return nil

		default:
			fmt.Printf("unknown command: %s\n", fields[0])
		}
	}
	return scanner.Err()
}
