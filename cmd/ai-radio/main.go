package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/savonet/ai-radio/internal/config"
	"github.com/savonet/ai-radio/internal/cover"
	"github.com/savonet/ai-radio/internal/dj"
	"github.com/savonet/ai-radio/internal/library"
	"github.com/savonet/ai-radio/internal/logger"
	"github.com/savonet/ai-radio/internal/narrator"
	"github.com/savonet/ai-radio/internal/playout"
	"github.com/savonet/ai-radio/internal/stream"
	"github.com/savonet/ai-radio/internal/web"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:          "ai-radio",
	Short:        "ai-radio streams a music library with AI narration breaks",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "load environment variables from this file")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("env file: %w", err)
		}
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
		Compress:   true,
	})
	defer logger.Sync()

	logger.Info("ai-radio starting",
		logger.String("station", cfg.StationName),
		logger.String("music_dir", cfg.MusicDir))

	lib, err := library.New(cfg.MusicDir)
	if err != nil {
		return fmt.Errorf("library: %w", err)
	}
	logger.Info("library scanned", logger.Int("tracks", lib.Len()))
	go func() {
		if err := lib.Watch(ctx); err != nil {
			logger.Warn("library: watcher stopped", logger.Err(err))
		}
	}()

	covers, err := cover.New(cfg.DefaultCover)
	if err != nil {
		return fmt.Errorf("cover manager: %w", err)
	}
	defer covers.Close()

	queue := playout.NewRequestQueue(cfg.QueueCap)
	engine := playout.New(lib, queue)

	gen := narrator.NewGenerator(narrator.NewClient(&cfg), cfg.StationName)
	host := dj.New(gen, queue, dj.Config{
		TracksPerBreak: cfg.TracksPerBreak,
		Workers:        cfg.Workers,
	})
	host.Attach(engine)
	go host.Run(ctx)

	hub := stream.NewNowPlayingHub()
	defer hub.Close()
	engine.OnTrackStart(func(ev playout.TrackEvent) {
		covers.Extract(ev.Metadata)
		hub.Broadcast(stream.NowPlaying{
			Title:  ev.Metadata.Title,
			Artist: ev.Metadata.Artist,
			Source: ev.Source.String(),
			Cover:  fmt.Sprintf("/cover?v=%d", covers.Generation()),
		})
	})

	broadcaster := stream.NewBroadcaster()
	go engine.Run(ctx)
	go broadcaster.Run(ctx, engine.Frames())

	webrtcHandler := stream.NewWebRTCHandler(broadcaster, cfg.StationName)

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(web.IndexHTML)
	})

	mux.Handle("/stream", stream.NewHTTPHandler(broadcaster, cfg.StationName))
	mux.Handle("/offer", webrtcHandler)
	mux.Handle("/ws/nowplaying", hub)
	mux.Handle("/cover", stream.NewCoverHandler(covers))

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		md, src, pos, dur := engine.Status()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		json.NewEncoder(w).Encode(map[string]any{
			"station":  cfg.StationName,
			"title":    md.Title,
			"artist":   md.Artist,
			"album":    md.Album,
			"source":   src.String(),
			"position": pos.Seconds(),
			"duration": dur.Seconds(),
			"progress": engine.Progress(),
			"queue":    engine.QueueLen(),
			"library":  lib.Len(),
			"cover":    fmt.Sprintf("/cover?v=%d", covers.Generation()),
			"dj":       host.Status(),
			"listeners": map[string]any{
				"http":   broadcaster.ListenerCount(),
				"webrtc": webrtcHandler.PeerCount(),
				"ws":     hub.Count(),
			},
			"config": map[string]any{
				"chat_model":       cfg.ChatModel,
				"tts_model":        cfg.TTSModel,
				"tts_voice":        cfg.TTSVoice,
				"tracks_per_break": cfg.TracksPerBreak,
				"workers":          cfg.Workers,
				"music_dir":        cfg.MusicDir,
				"visuals_dir":      cfg.VisualsDir,
			},
		})
	})

	mux.HandleFunc("/api/skip", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		engine.Skip()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		server.Close()
	}()

	logger.Info("ai-radio live", logger.String("addr", addr))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
