// ABOUTME: Entry point for the avatar-link viewer CLI
// ABOUTME: Manages the video channel lifecycle against the tutor backend

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/2389/avatar-link/internal/auth"
	"github.com/2389/avatar-link/internal/backend"
	"github.com/2389/avatar-link/internal/config"
	"github.com/2389/avatar-link/internal/lock"
	"github.com/2389/avatar-link/internal/rtc"
	"github.com/2389/avatar-link/internal/session"
	"github.com/2389/avatar-link/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                  _                   _ _       _
  __ ___   ____ _| |_ __ _ _ __      | (_)_ __ | | __
 / _' \ \ / / _' | __/ _' | '__|_____| | | '_ \| |/ /
| (_| |\ V / (_| | || (_| | | |______| | | | | |   <
 \__,_| \_/ \__,_|\__\__,_|_|        |_|_|_| |_|_|\_\
`

// getConfigPath returns the path to the viewer config file.
// Priority: AVATAR_LINK_CONFIG env var > XDG_CONFIG_HOME/avatar-link/config.yaml > ~/.config/avatar-link/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("AVATAR_LINK_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "avatar-link", "config.yaml")
}

// getDataPath returns the path to the avatar-link data directory.
// Priority: XDG_DATA_HOME/avatar-link > ~/.local/share/avatar-link
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "avatar-link")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "watch":
		err = runWatch(ctx)
	case "avatars":
		err = runAvatars(ctx)
	case "switch":
		err = runSwitch(ctx, os.Args[2:])
	case "login":
		err = runLogin(ctx, os.Args[2:])
	case "logout":
		err = runLogout(ctx)
	case "status":
		err = runStatus(ctx)
	case "init":
		err = runInit()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: avatar-link <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  watch              Connect to the avatar video channel and stay attached")
	fmt.Println("  avatars            List the avatars available to your account")
	fmt.Println("  switch <name>      Switch the selected avatar (reconnects a live watcher)")
	fmt.Println("  status             Show who holds the video channel right now")
	fmt.Println("  login [token]      Store a backend auth token (reads stdin if omitted)")
	fmt.Println("  logout             Remove the stored auth token")
	fmt.Println("  init               Create a new config file interactively")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  AVATAR_LINK_CONFIG  Config file path (default: ~/.config/avatar-link/config.yaml)")
	fmt.Println()
	yellow.Println("While watching:")
	fmt.Println("  SIGTSTP (Ctrl+Z)   Go to the background: disconnect and free the channel")
	fmt.Println("  SIGCONT            Return to the foreground and reconnect")
	fmt.Println()
}

// viewer bundles everything a connected command needs.
type viewer struct {
	cfg    *config.Config
	store  store.Store
	lock   *lock.Manager
	client *backend.Client
	ctrl   *session.Controller
	engine *rtc.Engine
}

// newViewer wires the full stack from the config file. The caller owns
// Close.
func newViewer() (*viewer, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	setupLogger(cfg.Logging)

	s, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	owner := uuid.New().String()
	lk := lock.NewManager(s, owner, cfg.Lock.TTL)
	client := backend.NewClient(cfg.Backend.BaseURL, auth.NewTokenSource(s), cfg.Backend.RequestTimeout)

	factory := func() (rtc.PeerTransport, error) {
		if cfg.Media.Dir == "" {
			return rtc.NewPionTransport(cfg.WebRTC.STUNServers, nil)
		}
		fs, err := rtc.NewFileSink(cfg.Media.Dir)
		if err != nil {
			return nil, err
		}
		t, err := rtc.NewPionTransport(cfg.WebRTC.STUNServers, fs)
		if err != nil {
			fs.Close()
			return nil, err
		}
		return &recordingTransport{PeerTransport: t, sink: fs}, nil
	}
	engine := rtc.NewEngine(client, factory, cfg.WebRTC.GatherTimeout)

	ctrl := session.NewController(lk, client, engine, s, session.Config{
		DefaultAvatar:     cfg.Avatar.Default,
		ColdStartSettle:   cfg.Avatar.ColdStartSettle,
		DisconnectSettle:  cfg.Avatar.DisconnectSettle,
		ReconnectSettle:   cfg.Avatar.ReconnectSettle,
		HeartbeatInterval: cfg.Lock.HeartbeatInterval,
	})

	return &viewer{cfg: cfg, store: s, lock: lk, client: client, ctrl: ctrl, engine: engine}, nil
}

// recordingTransport finalizes the media files when the transport closes,
// so IVF and Ogg headers are written out.
type recordingTransport struct {
	rtc.PeerTransport
	sink *rtc.FileSink
}

func (r *recordingTransport) Close() error {
	err := r.PeerTransport.Close()
	r.sink.Close()
	return err
}

func (v *viewer) Close() {
	v.ctrl.Shutdown()
	v.store.Close()
}

// runWatch connects to the video channel and stays attached until
// interrupted. Ctrl+Z frees the channel for another viewer; SIGCONT
// reconnects.
func runWatch(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)

	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)

	v, err := newViewer()
	if err != nil {
		return err
	}
	defer v.Close()

	green.Print("    ▶ ")
	fmt.Printf("Backend:  %s\n", v.cfg.Backend.BaseURL)
	green.Print("    ▶ ")
	fmt.Printf("Store:    %s\n", v.cfg.Storage.Path)
	if v.cfg.Media.Dir != "" {
		green.Print("    ▶ ")
		fmt.Printf("Media:    %s\n", v.cfg.Media.Dir)
	}
	fmt.Println()

	if err := v.ctrl.Connect(ctx); err != nil {
		return err
	}
	green.Println("  ✓ Connected. Ctrl+Z frees the channel, Ctrl+C quits.")

	visibility := make(chan os.Signal, 1)
	signal.Notify(visibility, syscall.SIGTSTP, syscall.SIGCONT)
	defer signal.Stop(visibility)

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			gray.Println("  shutting down")
			return nil
		case sig := <-visibility:
			switch sig {
			case syscall.SIGTSTP:
				v.ctrl.HandleHidden()
				gray.Println("  backgrounded: channel released")
			case syscall.SIGCONT:
				v.ctrl.HandleVisible()
				if err := v.ctrl.Connect(ctx); err != nil {
					color.Yellow("  reconnect failed: %v", err)
					continue
				}
				green.Println("  ✓ Reconnected")
			}
		}
	}
}

func runAvatars(ctx context.Context) error {
	v, err := newViewer()
	if err != nil {
		return err
	}
	defer v.Close()

	avatars, err := v.client.ListAvatars(ctx)
	if err != nil {
		return fmt.Errorf("listing avatars: %w", err)
	}

	selected := v.cfg.Avatar.Default
	if raw, err := v.store.Get(ctx, store.KeySelectedAvatar); err == nil && len(raw) > 0 {
		selected = string(raw)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tSTATUS\tDESCRIPTION")
	for _, a := range avatars {
		name := a.Name
		if name == selected {
			name = color.GreenString(name + " *")
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", name, a.Status, a.Description)
	}
	return w.Flush()
}

func runSwitch(ctx context.Context, args []string) error {
	if len(args) < 1 || args[0] == "" {
		return fmt.Errorf("usage: avatar-link switch <name>")
	}
	name := args[0]

	v, err := newViewer()
	if err != nil {
		return err
	}
	defer v.Close()

	sw := session.NewSwitcher(v.ctrl, v.client, v.store, session.Config{
		DefaultAvatar:    v.cfg.Avatar.Default,
		DisconnectSettle: v.cfg.Avatar.DisconnectSettle,
		ReconnectSettle:  v.cfg.Avatar.ReconnectSettle,
	})

	if err := sw.Switch(ctx, name); err != nil {
		return err
	}

	color.Green("  ✓ Switched to %s", name)
	return nil
}

// runLogin stores a backend token in the shared store so every viewer
// process on this machine picks it up.
func runLogin(ctx context.Context, args []string) error {
	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		fmt.Fprint(os.Stderr, "Token: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading token: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := auth.Login(ctx, s, token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	color.Green("  ✓ Token stored")
	return nil
}

func runLogout(ctx context.Context) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := auth.Logout(ctx, s); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	color.Green("  ✓ Logged out")
	return nil
}

// runStatus inspects the shared admission lock without taking it.
func runStatus(ctx context.Context) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	inspector := lock.NewManager(s, "status-probe-"+uuid.New().String(), cfg.Lock.TTL)
	rec, stale := inspector.Holder(ctx)

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Video Channel")
	cyan.Println("  -------------")

	switch {
	case rec == nil:
		fmt.Println("  Holder:   (free)")
	case stale:
		fmt.Printf("  Holder:   %s ", rec.Owner)
		color.Yellow("(stale, claimable)")
		fmt.Printf("  Acquired: %s\n", rec.AcquiredAt.Format(time.RFC3339))
	default:
		fmt.Printf("  Holder:   %s ", rec.Owner)
		color.Green("(live)")
		fmt.Printf("  Acquired: %s\n", rec.AcquiredAt.Format(time.RFC3339))
	}

	if raw, err := s.Get(ctx, store.KeySelectedAvatar); err == nil && len(raw) > 0 {
		fmt.Printf("  Avatar:   %s\n", string(raw))
	} else {
		fmt.Printf("  Avatar:   %s (default)\n", cfg.Avatar.Default)
	}

	if _, err := s.Get(ctx, store.KeyAuthToken); err == nil {
		fmt.Println("  Auth:     token stored")
	} else {
		fmt.Println("  Auth:     not logged in")
	}
	fmt.Println()
	return nil
}

// openStore opens the shared store from the config file.
func openStore() (store.Store, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	s, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("avatar-link configuration setup")
	fmt.Println("===============================")
	fmt.Println()

	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "state.db")

	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Backend Configuration ---")
	baseURL := prompt(reader, "Backend base URL", "http://localhost:8010")

	fmt.Println("\n--- Storage Configuration ---")
	dbPath := prompt(reader, "SQLite store path", defaultDbPath)

	fmt.Println("\n--- Media Configuration ---")
	mediaDir := prompt(reader, "Recording directory (empty to disable)", "")

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# avatar-link configuration\n")
	cfg.WriteString("# Generated by avatar-link init\n\n")

	cfg.WriteString("backend:\n")
	cfg.WriteString(fmt.Sprintf("  base_url: \"%s\"\n", baseURL))
	cfg.WriteString("  request_timeout: \"30s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("webrtc:\n")
	cfg.WriteString("  stun_servers:\n")
	cfg.WriteString("    - \"stun:stun.l.google.com:19302\"\n")
	cfg.WriteString("  gather_timeout: \"10s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("lock:\n")
	cfg.WriteString("  ttl: \"12s\"\n")
	cfg.WriteString("  heartbeat_interval: \"5s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("avatar:\n")
	cfg.WriteString("  default: \"test_yongen\"\n")
	cfg.WriteString("  cold_start_settle: \"2s\"\n")
	cfg.WriteString("  disconnect_settle: \"500ms\"\n")
	cfg.WriteString("  reconnect_settle: \"1s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("storage:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	if mediaDir != "" {
		cfg.WriteString("media:\n")
		cfg.WriteString(fmt.Sprintf("  dir: \"%s\"\n", mediaDir))
		cfg.WriteString("\n")
	}

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nNext steps:")
	fmt.Println("  avatar-link login      # store your backend token")
	fmt.Println("  avatar-link watch      # connect to the channel")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
