package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"time"

	"murmur/audio"
	"murmur/config"
	"murmur/doctor"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/log"
	"murmur/notify"
	"murmur/shutdown"
	"murmur/textproc"
	"murmur/transcriber"
)

var version = "dev"

func main() {
	configFlag := flag.String("config", "", "Config file path (default: ~/.config/murmur/config.toml)")
	deviceFlag := flag.String("device", "", "Capture device name (overrides config)")
	langFlag := flag.String("lang", "", "Language code for transcription (overrides config)")
	modelFlag := flag.String("model", "", "Whisper model name or path (overrides config)")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060)")
	foregroundFlag := flag.Bool("foreground", false, "Stay in the foreground instead of daemonizing")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run environment diagnostics and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	configPath := *configFlag
	if configPath == "" {
		configPath, err = config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *deviceFlag != "" {
		cfg.Audio.Device = *deviceFlag
	}
	if *langFlag != "" {
		cfg.Transcriber.Language = *langFlag
	}
	if *modelFlag != "" {
		cfg.Transcriber.Model = *modelFlag
	}

	if *doctorFlag {
		os.Exit(doctor.Run(cfg))
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	// Re-exec in the background and return the shell prompt.
	if !*foregroundFlag && os.Getenv("_MURMUR_BG") == "" {
		exe, _ := os.Executable()
		cmd := exec.Command(exe, os.Args[1:]...)
		cmd.Env = append(os.Environ(), "_MURMUR_BG=1")
		devnull, _ := os.Open(os.DevNull)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("murmur started (pid %d), hold %s to dictate\n", cmd.Process.Pid, cfg.Hotkey.String())
		os.Exit(0)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	log.Infof("murmur %s starting, hotkey %s", version, cfg.Hotkey.String())

	trans, err := transcriber.New(cfg.Transcriber)
	if err != nil {
		log.Errorf("transcriber init: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Info("engine: " + trans.Name())

	inj, err := inject.New(cfg.Inject)
	if err != nil {
		log.Errorf("inject init: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio init: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	mic, err := audio.FindDevice(actx, cfg.Audio.Device)
	if err != nil {
		log.Errorf("audio device: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if mic != nil && audio.IsBluetooth(mic.Name) {
		log.Warnf("capture device %q looks like a Bluetooth headset, transcription quality may suffer", mic.Name)
	}

	events := make(chan hotkey.KeyEvent, 64)
	sources, err := startKeySources(cfg, events)
	if err != nil {
		log.Errorf("key sources: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer sources.Close()

	machine := hotkey.NewMachine(
		cfg.Hotkey.ModifierCodes(), cfg.Hotkey.KeyCode(),
		cfg.Hotkey.MinDwell(), events,
	)

	notif := notify.New(cfg.Notify.Enabled)
	proc := textproc.New(cfg.Processing)

	// A signal closes stop; the daemon loop aborts any in-flight session
	// before returning, then the defers release devices and the log.
	stop := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		log.Info("shutting down")
		close(stop)
	}()

	notif.Ready(cfg.Hotkey.String())
	log.Info("ready")

	d := newDaemon(cfg, actx, mic, trans, proc, inj, notif, machine.Signals())
	d.run(stop)
}
