// Command trackctl works with editor profiles, track files and stored sessions
// from the command line.
//
//	trackctl validate [--config-dir configs] [track files...]
//	trackctl analyze [--json] <track files...>
//	trackctl render <track file>
//	trackctl export [store flags] --out track.json.zst <session id>
//	trackctl import [store flags] [--id ab12] [--config default] [--name "Monza"] <track file>
//
// Track files are track documents, optionally zstd-compressed (.zst). Session
// files written by the server are accepted wherever a track file is expected.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/track-editor/game/config"
	"github.com/wricardo/track-editor/game/editor"
	"github.com/wricardo/track-editor/game/service"
	"github.com/wricardo/track-editor/game/session"
	"github.com/wricardo/track-editor/game/track"
	"github.com/wricardo/track-editor/pkg/logger"
)

var errInvalid = errors.New("validation failed")

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File   string
	Kind   string
	Valid  bool
	Errors []string
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing editor profiles", Sources: cli.EnvVars("CONFIG_DIR")},
		&cli.StringFlag{Name: "store", Value: "file", Usage: "Session store: file or sqlite", Sources: cli.EnvVars("SESSION_STORE")},
		&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for session files", Sources: cli.EnvVars("SESSIONS_DIR")},
		&cli.StringFlag{Name: "db-path", Value: "sessions/sessions.db", Usage: "SQLite database path", Sources: cli.EnvVars("DB_PATH")},
		&cli.BoolFlag{Name: "compress", Usage: "Write session files zstd-compressed", Sources: cli.EnvVars("SESSION_COMPRESS")},
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "trackctl",
		Usage: "Validate, inspect and move race tracks",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate editor profiles and track files",
				ArgsUsage: "[track files...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing editor profiles", Sources: cli.EnvVars("CONFIG_DIR")},
				},
				Action: runValidate,
			},
			{
				Name:      "analyze",
				Usage:     "Report open ends and whether tracks form a closed loop",
				ArgsUsage: "<track files...>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the analysis as JSON"},
				},
				Action: runAnalyze,
			},
			{
				Name:      "render",
				Usage:     "Draw a track with box-drawing characters",
				ArgsUsage: "<track file>",
				Action:    runRender,
			},
			{
				Name:      "export",
				Usage:     "Write a stored session's track to a file",
				ArgsUsage: "<session id>",
				Flags: append(storeFlags(),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "-", Usage: "Output file; a .zst suffix compresses, - writes to stdout"},
				),
				Action: runExport,
			},
			{
				Name:      "import",
				Usage:     "Load a track file into a stored session",
				ArgsUsage: "<track file>",
				Flags: append(storeFlags(),
					&cli.StringFlag{Name: "id", Usage: "Session to replace; a new session is created when empty"},
					&cli.StringFlag{Name: "config", Value: config.DefaultConfigName, Usage: "Editor profile for new sessions"},
					&cli.StringFlag{Name: "name", Usage: "Track name"},
				),
				Action: runImport,
			},
		},
	}
}

func main() {
	// progress goes to stderr so exported tracks can be piped
	logger.InitWith(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stderr)

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func profileFormat(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	return ""
}

// validateProfile checks one profile file the way the server loads it
func validateProfile(path string) ValidationResult {
	result := ValidationResult{File: path, Kind: "profile"}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	cfg, err := config.Decode(data, profileFormat(path))
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Valid = true
	result.Errors = append(result.Errors,
		fmt.Sprintf("✓ %s: %dpx cells, zoom %gx..%gx", cfg.Name, cfg.Interval, cfg.Zoom.Min, cfg.Zoom.Max),
		fmt.Sprintf("✓ Fill limit: %d cells", cfg.MaxFillArea),
	)
	return result
}

// validateTrack checks that a track file decodes and restores
func validateTrack(path string) ValidationResult {
	result := ValidationResult{File: path, Kind: "track"}

	g, err := loadTrackFile(path)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	a := track.Analyze(g)
	result.Valid = true
	result.Errors = append(result.Errors, fmt.Sprintf("✓ %d tiles", a.Tiles))
	if a.Start == nil && a.Tiles > 0 {
		result.Errors = append(result.Errors, "⚠ No start tile")
	}
	if !a.Closed && a.Tiles > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("⚠ Not a closed loop (%d open ends)", len(a.OpenEnds)))
	}
	return result
}

func printResult(w io.Writer, result ValidationResult) {
	fmt.Fprintf(w, "\n%s %s (%s)\n", strings.Repeat("=", 20), result.File, result.Kind)
	if result.Valid {
		fmt.Fprintln(w, "✅ VALID")
		for _, info := range result.Errors {
			fmt.Fprintln(w, "  "+info)
		}
		return
	}
	fmt.Fprintln(w, "❌ INVALID")
	for _, err := range result.Errors {
		fmt.Fprintln(w, "  ❌ "+err)
	}
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer
	var results []ValidationResult

	configDir := cmd.String("config-dir")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		return fmt.Errorf("reading config directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || profileFormat(entry.Name()) == "" {
			continue
		}
		results = append(results, validateProfile(filepath.Join(configDir, entry.Name())))
	}

	for _, path := range cmd.Args().Slice() {
		results = append(results, validateTrack(path))
	}

	allValid := true
	for _, result := range results {
		printResult(w, result)
		allValid = allValid && result.Valid
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		fmt.Fprintln(w, "❌ Some files have errors")
		return errInvalid
	}
	fmt.Fprintln(w, "✅ All files are valid!")
	return nil
}

func formatAnalysis(path string, a track.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n=== Analyzing %s ===\n", path)

	start := "none"
	if a.Start != nil {
		start = a.Start.String()
	}
	fmt.Fprintf(&b, "Tiles: %d | Start: %s\n", a.Tiles, start)
	if a.Min != nil {
		fmt.Fprintf(&b, "Bounds: %s .. %s (%dx%d)\n", a.Min, a.Max, a.Max.X-a.Min.X+1, a.Max.Y-a.Min.Y+1)
	}
	fmt.Fprintf(&b, "Components: %d\n", a.Components)

	if len(a.OpenEnds) == 0 {
		b.WriteString("Open ends: none\n")
	} else {
		fmt.Fprintf(&b, "Open ends (%d):\n", len(a.OpenEnds))
		for _, end := range a.OpenEnds {
			fmt.Fprintf(&b, "  %s %s\n", end.At, end.Side)
		}
	}

	if a.Closed {
		b.WriteString("✅ Closed loop\n")
	} else {
		b.WriteString("⚠️  Track is not a closed loop\n")
	}
	return b.String()
}

func runAnalyze(ctx context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("analyze needs at least one track file")
	}

	reports := make(map[string]track.Analysis)
	for _, path := range cmd.Args().Slice() {
		g, err := loadTrackFile(path)
		if err != nil {
			return err
		}
		a := track.Analyze(g)
		if cmd.Bool("json") {
			reports[path] = a
			continue
		}
		fmt.Fprint(w, formatAnalysis(path, a))
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	return nil
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("render needs exactly one track file")
	}
	g, err := loadTrackFile(cmd.Args().First())
	if err != nil {
		return err
	}
	for _, row := range track.Render(g) {
		fmt.Fprintln(cmd.Root().Writer, row)
	}
	return nil
}

// openStore opens the session store selected by the store flags
func openStore(cmd *cli.Command) (session.SessionPersistence, service.ConfigManager, func() error, error) {
	configManager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return nil, nil, nil, err
	}

	switch cmd.String("store") {
	case "file", "":
		fp, err := session.NewFilePersistence(cmd.String("sessions-dir"), configManager, session.WithCompression(cmd.Bool("compress")))
		if err != nil {
			return nil, nil, nil, err
		}
		return fp, configManager, func() error { return nil }, nil
	case "sqlite":
		sp, err := session.NewSQLitePersistence(cmd.String("db-path"), configManager)
		if err != nil {
			return nil, nil, nil, err
		}
		return sp, configManager, sp.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown session store %q (use file or sqlite)", cmd.String("store"))
	}
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("export needs exactly one session id")
	}

	store, _, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	sess, err := store.Load(cmd.Args().First())
	if err != nil {
		return err
	}

	var doc track.Document
	sess.Do(func(ed *editor.TrackEditor) error {
		doc = ed.Document()
		return nil
	})

	out := cmd.String("out")
	if out == "-" {
		data, err := doc.Encode()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.Root().Writer, string(data))
		return err
	}
	if err := writeTrackFile(out, doc); err != nil {
		return err
	}

	logger.WithComponent("trackctl").WithField("session_id", sess.ID).WithField("file", out).Infof("exported %d tiles", len(doc.Tiles))
	return nil
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("import needs exactly one track file")
	}

	doc, err := readTrackFile(cmd.Args().First())
	if err != nil {
		return err
	}

	store, configManager, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	configID := cmd.String("config")
	cfg, err := configManager.LoadConfig(configID)
	if err != nil {
		return err
	}

	manager := session.NewManagerWithPersistence(store)
	sess, err := manager.GetOrCreate(cmd.String("id"), configID, cfg)
	if err != nil {
		return err
	}

	if err := sess.Do(func(ed *editor.TrackEditor) error {
		return ed.LoadDocument(*doc)
	}); err != nil {
		return err
	}
	if name := cmd.String("name"); name != "" {
		sess.TrackName = name
	}
	if err := manager.Save(sess.ID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "Imported %d tiles into session %s\n", len(doc.Tiles), sess.ID)
	return nil
}
