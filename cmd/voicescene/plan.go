package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ivlev/voicescene/internal/engine"
	"github.com/ivlev/voicescene/internal/scene"
	"github.com/ivlev/voicescene/internal/sequencer"
	"github.com/spf13/cobra"
)

const maxTextColumn = 40

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var provider string
	var noCache bool
	cmd := &cobra.Command{
		Use:   "plan [scene]",
		Short: "Resolve segment timing without rendering",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			applySpeechFlags(cmd, cfg, provider, noCache)
			if err := resolveScene(cfg, args); err != nil {
				return err
			}

			res, err := engine.NewProject(cfg, ctx.log).Plan(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("[*] Scene: %s | Speech: %s\n", res.Scene, res.Synth)
			fmt.Println(renderTable(planHeaders, planRows(res.Reports), planAligns))
			fmt.Printf("[*] Total: %.2fs\n", res.Duration)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "speech", "", "Speech provider: elevenlabs or estimate")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Always call the speech provider")
	return cmd
}

var (
	planHeaders = []string{"#", "Narration", "Start", "Audio", "Visual", "Idle", "Overrun", "Hold", "Steps"}
	planAligns  = []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
)

func planRows(reports []sequencer.Report) [][]string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		text := r.Text
		if text == "" {
			text = "(silent)"
		}
		steps := make([]string, len(r.Steps))
		for i, d := range r.Steps {
			steps[i] = seconds(d)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Index + 1),
			truncate(text, maxTextColumn),
			seconds(r.Start),
			seconds(r.Audio),
			seconds(r.Visual),
			seconds(r.Idle),
			seconds(r.Overrun),
			seconds(r.Hold),
			strings.Join(steps, " "),
		})
	}
	return rows
}

func newScenesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List the built-in scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := sceneRows(scene.Names())
			if err != nil {
				return err
			}
			fmt.Println(renderTable(
				[]string{"Name", "Title", "Shapes", "Segments"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.AddCommand(newExportCommand())
	return cmd
}

func newExportCommand() *cobra.Command {
	var dir string
	var force bool
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a built-in scene to a YAML file for editing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := exportScene(args[0], dir, force)
			if err != nil {
				return err
			}
			fmt.Printf("[+] Scene written: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", scenesDir, "Destination directory")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

// exportScene copies a built-in scene into dir as <name>.yaml.
func exportScene(name, dir string, force bool) (string, error) {
	sc, err := scene.Builtin(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".yaml")
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	if err := scene.WriteScene(sc, path); err != nil {
		return "", fmt.Errorf("export %s: %w", name, err)
	}
	return path, nil
}

func sceneRows(names []string) ([][]string, error) {
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		sc, err := scene.Builtin(name)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{
			name,
			sc.Title,
			strconv.Itoa(len(sc.Shapes)),
			strconv.Itoa(len(sc.Segments)),
		})
	}
	return rows, nil
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
