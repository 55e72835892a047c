package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vanderheijden86/tracklane/internal/datasource"
	"github.com/vanderheijden86/tracklane/pkg/annotator"
	"github.com/vanderheijden86/tracklane/pkg/config"
	"github.com/vanderheijden86/tracklane/pkg/debug"
	"github.com/vanderheijden86/tracklane/pkg/export"
	"github.com/vanderheijden86/tracklane/pkg/loader"
	"github.com/vanderheijden86/tracklane/pkg/metrics"
	"github.com/vanderheijden86/tracklane/pkg/model"
	_ "github.com/vanderheijden86/tracklane/pkg/ttyguard"
	"github.com/vanderheijden86/tracklane/pkg/ui"
	"github.com/vanderheijden86/tracklane/pkg/version"
	"github.com/vanderheijden86/tracklane/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	dirFlag := flag.String("dir", "", "Project directory to search for a document (default $TRACKLANE_DIR or cwd)")
	titleFlag := flag.String("title", "", "Document title shown in the header and exports")
	exportFlag := flag.String("export", "", "Export formats instead of opening the TUI (json,sqlite,svg,png,pdf or all)")
	outFlag := flag.String("out", "", "Output directory for --export (default ./export)")
	wizardFlag := flag.Bool("wizard", false, "Run the interactive export wizard")
	metricsFlag := flag.Bool("metrics", false, "Print timing metrics to stderr on exit")
	noWatch := flag.Bool("no-watch", false, "Do not reload the document when it changes on disk")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: tl [options] [document|directory|url]")
		fmt.Println("\nA terminal timeline annotator.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("tl %s\n", version.Version)
		os.Exit(0)
	}

	if *metricsFlag {
		metrics.SetEnabled(true)
		defer func() { _ = metrics.WriteReport(os.Stderr) }()
	}

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(os.Stderr, "Warning: %v\n", cfgErr)
		cfg = config.DefaultConfig()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, loadErr := openDocument(ctx, flag.Arg(0), *dirFlag)
	if *titleFlag != "" {
		doc.Title = *titleFlag
	}

	a := annotator.New(
		annotator.WithViewport(cfg.ViewportSettings()),
		annotator.WithHistoryLimit(cfg.History.MaxEntries),
		annotator.WithScaleWarnings(cfg.Scale.WarnOutOfDomain),
	)
	report := a.ReadState(doc.State)
	debug.Log("tl: loaded %d channels, %d annotations (%d channels dropped, %d annotations skipped)",
		report.Channels, report.Annotations, report.DroppedChannels, report.SkippedAnnotations)

	if *exportFlag != "" || *wizardFlag {
		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "Error loading document: %v\n", loadErr)
			os.Exit(1)
		}
		if err := runExport(ctx, a, doc, *exportFlag, *outFlag, *wizardFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opts := ui.Options{Config: cfg, Path: doc.Path, Title: doc.Title}
	if loadErr != nil {
		opts.Notice = loadErr.Error()
		opts.NoticeIsError = true
	} else if doc.Notice != "" {
		opts.Notice = doc.Notice
	}

	if !*noWatch && doc.Path != "" {
		if w, err := startWatcher(ctx, doc.Path); err != nil {
			debug.Warn("tl: not watching %s: %v", doc.Path, err)
		} else {
			defer w.Stop()
			opts.Watcher = w
		}
	}

	m := ui.NewModel(a, opts)
	defer m.Close()

	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running tracklane: %v\n", err)
		os.Exit(1)
	}

	if doc.Path != "" {
		cfg.AddRecent(doc.Path, time.Now())
		if err := config.Save(cfg); err != nil {
			debug.Warn("tl: saving config: %v", err)
		}
	}
}

// document is what tl opened: the state plus where it saves back to.
type document struct {
	State model.State
	// Path is the JSON file saves go to; empty for remote documents.
	Path   string
	Title  string
	Notice string
}

// openDocument resolves arg (a file, a directory or a URL) or, with no
// argument, the project directory. A load failure still returns a usable
// document so the editor can start empty.
func openDocument(ctx context.Context, arg, dir string) (document, error) {
	if arg != "" && loader.IsRemote(arg) {
		s, err := loader.Load(ctx, arg)
		return document{State: s, Title: arg}, err
	}

	if arg != "" {
		info, err := os.Stat(arg)
		switch {
		case err != nil && errors.Is(err, os.ErrNotExist):
			return document{Path: arg, Title: filepath.Base(arg), Notice: "new document: " + arg}, nil
		case err != nil:
			return document{Path: arg}, err
		case !info.IsDir():
			s, err := loader.LoadFile(arg)
			return document{State: s, Path: arg, Title: filepath.Base(arg)}, err
		}
		dir = arg
	}

	dir, err := loader.ProjectDir(dir)
	if err != nil {
		return document{}, err
	}
	doc := document{Path: savePath(dir), Title: filepath.Base(dir)}
	s, src, err := datasource.LoadState(ctx, dir)
	if err != nil {
		if errors.Is(err, datasource.ErrNoSources) || errors.Is(err, loader.ErrNoStateFile) {
			doc.Notice = "new document: " + doc.Path
			return doc, nil
		}
		return doc, err
	}
	if src.Type == datasource.SourceTypeJSON {
		doc.Path = src.Path
	} else {
		doc.Notice = fmt.Sprintf("read %s; saving to %s", filepath.Base(src.Path), filepath.Base(doc.Path))
	}
	doc.State = s
	return doc, nil
}

// savePath is the JSON file a directory's document saves to.
func savePath(dir string) string {
	if p, err := loader.FindStatePath(dir); err == nil {
		return p
	}
	return filepath.Join(dir, loader.PreferredStateNames[0])
}

func startWatcher(ctx context.Context, path string) (*watcher.Watcher, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	w, err := watcher.New(path)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func runExport(ctx context.Context, a *annotator.Annotator, doc document, formats, out string, wizard bool) error {
	title := doc.Title
	base := strings.TrimSuffix(filepath.Base(doc.Path), filepath.Ext(doc.Path))
	if base == "" || base == "." {
		base = "timeline"
	}
	if out == "" {
		out = "export"
	}

	fs, err := export.ParseFormats(formats)
	if err != nil && !wizard {
		return err
	}

	if wizard {
		docPath := doc.Path
		if docPath == "" {
			docPath = filepath.Join(".", base+".json")
		}
		wc, err := export.NewWizard(docPath, title).Run()
		if err != nil {
			return err
		}
		title, out, base, fs = wc.Title, wc.OutputDir, wc.BaseName, wc.Formats
	}

	d, err := export.NewDocument(title, a.SessionID().String(), a.State())
	if err != nil {
		return err
	}
	results, err := export.ExportBundle(ctx, d, out, base, fs)
	if err != nil {
		return err
	}
	export.PrintSuccess(results)
	return nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set TRACKLANE_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TRACKLANE_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}
				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}
