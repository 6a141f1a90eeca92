// Command tempo is a headless music player daemon: it plays the library
// queue and exposes it to media keys and MPRIS clients.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/llehouerou/tempo/internal/clock"
	"github.com/llehouerou/tempo/internal/config"
	"github.com/llehouerou/tempo/internal/library"
	"github.com/llehouerou/tempo/internal/logger"
	"github.com/llehouerou/tempo/internal/notify"
	"github.com/llehouerou/tempo/internal/playback"
	"github.com/llehouerou/tempo/internal/player"
	"github.com/llehouerou/tempo/internal/playlist"
	"github.com/llehouerou/tempo/internal/remote"
	"github.com/llehouerou/tempo/internal/seeker"
	"github.com/llehouerou/tempo/internal/session"
	"github.com/llehouerou/tempo/internal/state"
)

var (
	app        = kingpin.New("tempo", "Headless music player daemon")
	configPath = app.Flag("config", "Path to config file (default: XDG config dir, then ./config.toml)").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	runCmd     = app.Command("run", "Play the library queue (default)").Default()
	scanCmd    = app.Command("scan", "Rescan the library folders and exit")
	statusCmd  = app.Command("status", "Print the persisted queue and exit")
	searchCmd  = app.Command("search", "Search the library and exit")
	shuffleArg = runCmd.Flag("shuffle", "Start from a freshly shuffled queue").Bool()
	trackArg   = runCmd.Flag("track", "Start with the best library match for this query").String()
	queryArg   = searchCmd.Arg("query", "Words to match against artist, album and title").Required().Strings()
	limitArg   = searchCmd.Flag("limit", "Maximum number of results").Default("20").Int()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tempo: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.Config{Output: cfg.Log.Output, Level: cfg.Log.Level}
	if *verbose {
		logCfg.Level = "debug"
	}
	if *logfile != "" {
		logCfg.Output = *logfile
	}
	log, err := logger.Init(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tempo: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case scanCmd.FullCommand():
		err = scan(ctx, cfg, log)
	case statusCmd.FullCommand():
		err = status(ctx, cfg, log)
	case searchCmd.FullCommand():
		err = search(ctx, cfg, log)
	default:
		err = run(ctx, cfg, log)
	}
	if err != nil {
		log.Error().Err(err).Msg("tempo failed")
		stop()
		os.Exit(1)
	}
}

// stores holds the shared sqlite database handles.
type stores struct {
	state   *state.Manager
	catalog *library.Catalog
}

func openStores(cfg *config.Config, log zerolog.Logger) (*stores, error) {
	mgr, err := state.Open(cfg.StatePath, log.With().Str("component", "state").Logger())
	if err != nil {
		return nil, errors.Wrap(err, "open state")
	}
	cat, err := library.NewCatalog(mgr.DB())
	if err != nil {
		_ = mgr.Close()
		return nil, errors.Wrap(err, "open library catalog")
	}
	return &stores{state: mgr, catalog: cat}, nil
}

func (s *stores) Close() error {
	return s.state.Close()
}

func scan(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()
	return rescan(ctx, cfg, st.catalog, log)
}

func rescan(ctx context.Context, cfg *config.Config, cat *library.Catalog, log zerolog.Logger) error {
	started := time.Now()
	scanner := library.NewScanner(cat, player.ProbeDuration, log.With().Str("component", "scanner").Logger())
	stats, err := scanner.Scan(ctx, cfg.LibrarySources)
	if err != nil {
		return errors.Wrap(err, "scan library")
	}
	total, err := cat.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "count library")
	}
	log.Info().
		Str("files", humanize.Comma(int64(stats.Discovered))).
		Int("added", stats.Added).
		Int("updated", stats.Updated).
		Int("removed", stats.Removed).
		Int("failed", stats.Failed).
		Str("tracks", humanize.Comma(int64(total))).
		Str("took", time.Since(started).Round(time.Millisecond).String()).
		Msg("library scanned")
	return nil
}

func status(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	mode, _ := st.state.RepeatMode()
	fmt.Printf("Repeat: %s\n", playlist.ParseRepeatMode(mode))
	fmt.Printf("Lofi: %t  Distortion: %t\n", st.state.Lofi(), st.state.Distortion())

	ids, ok := st.state.TrackIDs()
	if !ok || len(ids) == 0 {
		fmt.Println("Queue: empty")
		return nil
	}
	tracks, err := st.catalog.FindTracks(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "resolve queue")
	}
	current, _ := st.state.CurrentTrackID()

	var length time.Duration
	for _, t := range tracks {
		length += t.Duration
	}
	fmt.Printf("Queue: %s tracks, %s\n", humanize.Comma(int64(len(tracks))), length.Round(time.Second))
	for i, t := range tracks {
		marker := " "
		if t.ID == current {
			marker = ">"
		}
		fmt.Printf("%s %4d  %s  [%s]\n", marker, i+1, t, t.Duration.Round(time.Second))
	}
	return nil
}

func search(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	tracks, err := st.catalog.Search(ctx, strings.Join(*queryArg, " "), *limitArg)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Println("No match")
		return nil
	}
	for _, t := range tracks {
		fmt.Printf("%016x  %s  [%s]\n", t.ID, t, t.Duration.Round(time.Second))
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if n, err := st.catalog.Count(ctx); err == nil && n == 0 {
		log.Info().Msg("library is empty, scanning")
		if err := rescan(ctx, cfg, st.catalog, log); err != nil {
			return err
		}
	}

	sess := newSession(cfg)
	if cfg.Session.WatchSleep {
		go func() {
			if err := session.WatchSleep(ctx, sess, log); err != nil {
				log.Warn().Err(err).Msg("sleep watcher unavailable")
			}
		}()
	}

	tracks := playlist.NewTrackStore(st.catalog, st.state)
	engine, err := playback.New(playback.Config{
		Factory:    player.NewBeepFactory(cfg.Playback.InitialVolume),
		Tracks:     tracks,
		Session:    sess,
		Authorizer: library.FolderAuthorizer{Sources: cfg.LibrarySources},
		State:      st.state,
		Clock:      clock.New(cfg.ClockInterval()),
		Seeker:     seeker.New(cfg.SeekInterval(), nil),
		Logger:     log,
	})
	if err != nil {
		return errors.Wrap(err, "create playback engine")
	}
	defer engine.Close()

	go logEvents(ctx, engine.Subscribe(), log)

	if cfg.Notify.Enabled {
		n, err := notify.New()
		if err != nil {
			return errors.Wrap(err, "create notifier")
		}
		go notify.NewPublisher(n, log).Run(ctx, engine.Subscribe())
	}

	if cfg.Remote.MPRIS {
		center := remote.NewMPRIS(cfg.Remote.Name, log)
		bridge := remote.NewBridge(engine, center, log)
		defer bridge.Close()
		center.Start()
		defer center.Close()
	}

	if err := startPlayback(ctx, engine, st.catalog, *trackArg, *shuffleArg, log); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
	return nil
}

// newSession builds the daemon's output session on a single fixed route.
func newSession(cfg *config.Config) *session.Local {
	sess := session.NewLocal("default")
	sess.SetVolume(cfg.Playback.InitialVolume)
	return sess
}

type trackFinder interface {
	Search(ctx context.Context, query string, limit int) ([]library.Track, error)
}

// startPlayback authorizes the library and starts the requested playback.
// A failed authorization leaves its error status in place.
func startPlayback(
	ctx context.Context,
	engine *playback.Engine,
	finder trackFinder,
	query string,
	shuffle bool,
	log zerolog.Logger,
) error {
	engine.Authorize(ctx)
	if st := engine.Status(); st.IsError() {
		log.Warn().Err(st.Err).Msg("not starting playback")
		return nil
	}

	switch {
	case query != "":
		matches, err := finder.Search(ctx, query, 1)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			log.Warn().Str("query", query).Msg("no track matches, playing the queue")
			engine.Play()
			return nil
		}
		engine.PlayTrack(matches[0].ID)
	case shuffle:
		engine.Shuffle(ctx)
	default:
		engine.Play()
	}
	return nil
}

// logEvents logs status, repeat and effect changes until ctx is done.
func logEvents(ctx context.Context, sub *playback.Subscription, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case ev := <-sub.StatusChanged:
			e := log.Info()
			if ev.Current.IsError() {
				e = log.Warn().Err(ev.Current.Err)
			}
			e.Stringer("status", ev.Current).Msg("playback")
		case ev := <-sub.RepeatModeChanged:
			log.Info().Stringer("mode", ev.Mode).Msg("repeat mode")
		case ev := <-sub.EffectsChanged:
			log.Info().Bool("lofi", ev.Lofi).Bool("distortion", ev.Distortion).Msg("effects")
		case <-sub.TrackChanged:
			// Logged by the engine
		case <-sub.Clock:
		}
	}
}
