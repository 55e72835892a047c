package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// WizardConfig holds the choices collected by the export wizard.
type WizardConfig struct {
	Title     string
	OutputDir string
	BaseName  string
	Formats   []Format
}

// Wizard handles the interactive export flow.
type Wizard struct {
	config *WizardConfig
}

// NewWizard creates an export wizard seeded with defaults derived from the
// document path.
func NewWizard(docPath, title string) *Wizard {
	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	if base == "" || base == "." {
		base = "timeline"
	}
	dir := filepath.Join(filepath.Dir(docPath), "export")
	return &Wizard{config: &WizardConfig{
		Title:     title,
		OutputDir: dir,
		BaseName:  base,
		Formats:   []Format{FormatJSON, FormatSVG},
	}}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run asks for the title, the output location and the formats.
func (w *Wizard) Run() (*WizardConfig, error) {
	fmt.Println("")
	fmt.Println("tracklane export")
	fmt.Println("────────────────")

	options := make([]huh.Option[Format], 0, len(AllFormats))
	for _, f := range AllFormats {
		opt := huh.NewOption(formatLabel(f), f)
		for _, sel := range w.config.Formats {
			if sel == f {
				opt = opt.Selected(true)
			}
		}
		options = append(options, opt)
	}

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&w.config.Title).
				Placeholder("Timeline"),
			huh.NewInput().
				Title("Output directory").
				Value(&w.config.OutputDir).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("output directory is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("File name").
				Description("Each format appends its own extension").
				Value(&w.config.BaseName),
		),
		huh.NewGroup(
			huh.NewMultiSelect[Format]().
				Title("Formats").
				Options(options...).
				Value(&w.config.Formats).
				Validate(func(fs []Format) error {
					if len(fs) == 0 {
						return fmt.Errorf("pick at least one format")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}
	fmt.Println("")
	return w.config, nil
}

// GetConfig returns the collected wizard configuration.
func (w *Wizard) GetConfig() *WizardConfig {
	return w.config
}

func formatLabel(f Format) string {
	switch f {
	case FormatJSON:
		return "JSON state document"
	case FormatSQLite:
		return "SQLite database"
	case FormatSVG:
		return "SVG timeline image"
	case FormatPNG:
		return "PNG timeline image"
	case FormatPDF:
		return "PDF annotation table"
	}
	return string(f)
}

// PrintSuccess lists the written files.
func PrintSuccess(results []BundleResult) {
	fmt.Println("Export complete:")
	for _, r := range results {
		fmt.Printf("  %-7s %s\n", r.Format, r.Path)
	}
}
