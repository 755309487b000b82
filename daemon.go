package main

import (
	"context"
	"errors"
	"time"

	"murmur/audio"
	"murmur/config"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/log"
	"murmur/notify"
	"murmur/session"
	"murmur/textproc"
	"murmur/transcriber"
)

// daemon is the event loop tying the pieces together. It owns the single
// session slot: at most one session is capturing or transcribing at any
// time. Transcription and delivery run on worker goroutines so a held key
// never blocks on the network.
type daemon struct {
	cfg   config.Config
	actx  audio.Context
	mic   *audio.DeviceInfo
	trans transcriber.Transcriber
	proc  *textproc.Processor
	inj   inject.Injector
	notif *notify.Notifier

	signals <-chan hotkey.Signal

	current    *session.Session
	busy       bool
	results    chan outcome
	deliveries chan string
}

// outcome is a finished transcription reported back to the loop.
type outcome struct {
	id    string
	text  string
	audio time.Duration
	took  time.Duration
	err   error
}

func newDaemon(cfg config.Config, actx audio.Context, mic *audio.DeviceInfo,
	trans transcriber.Transcriber, proc *textproc.Processor,
	inj inject.Injector, notif *notify.Notifier,
	signals <-chan hotkey.Signal) *daemon {
	return &daemon{
		cfg:        cfg,
		actx:       actx,
		mic:        mic,
		trans:      trans,
		proc:       proc,
		inj:        inj,
		notif:      notif,
		signals:    signals,
		results:    make(chan outcome, 1),
		deliveries: make(chan string, 4),
	}
}

// run processes signals until the signal channel closes or stop fires.
func (d *daemon) run(stop <-chan struct{}) {
	deliveryDone := make(chan struct{})
	go d.deliveryLoop(deliveryDone)
	defer func() {
		close(d.deliveries)
		<-deliveryDone
	}()

	for {
		select {
		case <-stop:
			if d.current != nil {
				d.current.Abort()
			}
			return

		case sig, ok := <-d.signals:
			if !ok {
				if d.current != nil {
					d.current.Abort()
				}
				return
			}
			d.handleSignal(sig)

		case out := <-d.results:
			d.busy = false
			d.handleOutcome(out)
		}
	}
}

func (d *daemon) handleSignal(sig hotkey.Signal) {
	switch sig.Kind {
	case hotkey.SessionStart:
		if d.busy {
			// Previous utterance still in flight; this press is dropped
			// rather than queued so audio never maps to a stale hold.
			log.Warn("hotkey pressed while a session is active, ignoring")
			return
		}
		s, err := session.Start(d.actx, d.mic)
		if err != nil {
			log.Errorf("session start: %v", err)
			d.notif.Error(err.Error())
			return
		}
		d.current = s
		d.busy = true
		log.SessionStart(s.ID())
		d.notif.Recording()

	case hotkey.SessionAbort:
		if d.current == nil {
			return
		}
		s := d.current
		d.current = nil
		d.busy = false
		s.Abort()
		log.SessionAbort(s.ID(), string(sig.Reason))

	case hotkey.SessionCommit:
		if d.current == nil {
			return
		}
		s := d.current
		d.current = nil
		d.notif.Transcribing()
		go d.finish(s)
	}
}

// finish commits the session off-loop and reports the outcome.
func (d *daemon) finish(s *session.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Transcriber.Timeout())
	defer cancel()

	start := time.Now()
	result, err := s.Commit(ctx, d.trans)

	out := outcome{
		id:    s.ID(),
		audio: s.AudioDuration(),
		took:  time.Since(start),
		err:   err,
	}
	if err == nil {
		out.text = result.Text
		if result.Metrics != nil {
			m := result.Metrics
			log.NetworkTimings(s.ID(), m.DNS, m.TLS, m.TTFB, m.Total, m.ConnReused)
		}
	}
	d.results <- out
}

func (d *daemon) handleOutcome(out outcome) {
	if out.err != nil {
		if errors.Is(out.err, session.ErrNoAudio) {
			log.SessionAbort(out.id, "no audio")
			d.notif.NoSpeech()
			return
		}
		if errors.Is(out.err, context.DeadlineExceeded) {
			log.Errorf("session %s: transcription timed out after %s", out.id, d.cfg.Transcriber.Timeout())
			d.notif.Error("transcription timed out")
			return
		}
		log.Errorf("session %s: transcription: %v", out.id, out.err)
		d.notif.Error(out.err.Error())
		return
	}

	text := d.proc.Process(out.text)
	log.SessionResult(out.id, d.trans.Name(), out.audio, out.took, len(text))

	if text == "" {
		d.notif.NoSpeech()
		return
	}

	log.TranscriptionText(text)

	// Never block the event loop behind a slow injector; a full backlog
	// loses this text, reported, same as any other injection failure.
	select {
	case d.deliveries <- text:
	default:
		log.Errorf("session %s: delivery backlog full, text dropped", out.id)
		d.notif.Error("typing backlog full, text dropped")
	}
}

// deliveryLoop injects finished texts one at a time so two fast utterances
// never interleave their keystrokes.
func (d *daemon) deliveryLoop(done chan<- struct{}) {
	defer close(done)
	for text := range d.deliveries {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Inject.Timeout())
		err := d.inj.Deliver(ctx, text)
		cancel()
		if err != nil {
			log.Errorf("inject: %v", err)
			d.notif.Error("could not type text: " + err.Error())
			continue
		}
		d.notif.Done(text)
	}
}
