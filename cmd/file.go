package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/history"
	"github.com/kittycad/kittycad-go/internal/pubsub"
	"github.com/kittycad/kittycad-go/internal/storage"
)

var extensionFormats = map[string]kittycad.FileImportFormat{
	"stp":    kittycad.FileImportFormatStep,
	"glb":    kittycad.FileImportFormatGltf,
	"sldprt": kittycad.FileImportFormatSldprt,
}

// srcFormat is the explicit format, or the one the file extension names.
func srcFormat(path, explicit string) (kittycad.FileImportFormat, error) {
	name := explicit
	if name == "" {
		name = strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	}
	f, ok := extensionFormats[name]
	if !ok {
		f = kittycad.FileImportFormat(name)
	}
	if !f.IsKnown() {
		return "", fmt.Errorf("cannot tell the format of %s, pass --src-format", path)
	}
	return f, nil
}

// expandInputs resolves every pattern with doublestar. A pattern without
// matches is kept as a literal path so the open reports it.
func expandInputs(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !slices.Contains(files, m) {
				files = append(files, m)
			}
		}
	}
	return files, nil
}

type conversionResult struct {
	Source    string                   `json:"source"`
	Operation *kittycad.FileConversion `json:"operation,omitempty"`
	Saved     string                   `json:"saved,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

func newFileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Convert CAD files and compute their physical properties",
	}
	cmd.AddCommand(newFileConvertCmd(a))
	for _, c := range newFilePropertyCmds(a) {
		cmd.AddCommand(c)
	}
	return cmd
}

func newFileConvertCmd(a *app) *cobra.Command {
	var (
		to          string
		from        string
		outDir      string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "convert <file|glob>...",
		Short: "Convert files to another CAD format",
		Long: `Convert every file matching the given paths or globs ("parts/**/*.step").
Outputs are written to <out>/<operation id>/.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := kittycad.FileExportFormat(strings.ToLower(to))
			if !output.IsKnown() {
				return fmt.Errorf("unknown output format %q", to)
			}
			files, err := expandInputs(args)
			if err != nil {
				return err
			}
			store, err := storage.Open(a.outputDir(outDir))
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			a.followJobs(ctx)

			results := make([]conversionResult, len(files))
			var mu sync.Mutex
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(max(concurrency, 1))
			for i, file := range files {
				g.Go(func() error {
					res := a.convertOne(gctx, store, file, from, output)
					mu.Lock()
					results[i] = res
					mu.Unlock()
					return nil
				})
			}
			g.Wait()

			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
			}
			err = a.out.Result(results, []string{"source", "id", "status", "saved", "error"}, func() [][]string {
				rows := make([][]string, len(results))
				for i, r := range results {
					id, status := "", ""
					if r.Operation != nil {
						id, status = r.Operation.ID.String(), string(r.Operation.Status)
					}
					rows[i] = []string{r.Source, id, status, r.Saved, r.Error}
				}
				return rows
			})
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d conversions failed", failed, len(files))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "", "Output format (fbx, glb, gltf, obj, ply, step, stl)")
	cmd.Flags().StringVar(&from, "src-format", "", "Source format, when the extension does not tell")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory for output files (default <data_dir>/outputs)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 4, "Conversions to run at once")
	cmd.MarkFlagRequired("to")
	return cmd
}

// followJobs logs job log changes until ctx is done.
func (a *app) followJobs(ctx context.Context) {
	jobs, err := a.history(ctx)
	if err != nil {
		a.log.Warn("job history unavailable", "error", err)
		return
	}
	events := jobs.Subscribe(ctx)
	go func() {
		for e := range events {
			switch e.Type {
			case pubsub.JobRecorded:
				a.log.Info("job submitted", "id", e.Payload.ID, "source", e.Payload.Input)
			case pubsub.JobFinished:
				a.log.Info("job "+string(e.Payload.Status), "id", e.Payload.ID, "source", e.Payload.Input, "at", e.At.Format(time.TimeOnly))
			default:
				a.log.Debug("job "+string(e.Payload.Status), "id", e.Payload.ID)
			}
		}
	}()
}

func (a *app) convertOne(ctx context.Context, store *storage.Storage, file, from string, output kittycad.FileExportFormat) conversionResult {
	res := conversionResult{Source: file}
	fail := func(err error) conversionResult {
		res.Error = err.Error()
		return res
	}

	src, err := srcFormat(file, from)
	if err != nil {
		return fail(err)
	}
	f, err := os.Open(file)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	conv, err := a.client.File.NewConversion(ctx, src, output, kittycad.FileNewConversionParams{
		FileBody: kittycad.FileBody{File: f},
	})
	if err != nil {
		return fail(err)
	}
	a.record(ctx, conv.AsyncOperationInfo, file, "")

	if !conv.Status.IsTerminal() {
		op, err := a.waitFor(ctx, conv.ID.String(), 0)
		if op != nil {
			if done, ok := op.(kittycad.FileConversion); ok {
				conv = &done
			}
		}
		if err != nil {
			res.Operation = conv
			a.updateJob(ctx, conv.ID.String(), conv.Status, "", err.Error())
			return fail(err)
		}
	}
	res.Operation = conv
	if conv.Status == kittycad.ApiCallStatusFailed {
		a.updateJob(ctx, conv.ID.String(), conv.Status, "", conv.Error)
		return fail(fmt.Errorf("conversion failed: %s", conv.Error))
	}

	id := conv.ID.String()
	for name, data := range conv.Outputs {
		if _, err := store.WriteFile(ctx, data, id, name); err != nil {
			return fail(err)
		}
	}
	if len(conv.Outputs) > 0 {
		res.Saved = store.LocalPath(id)
	}
	a.updateJob(ctx, id, conv.Status, res.Saved, "")
	return res
}

func (a *app) updateJob(ctx context.Context, id string, status kittycad.ApiCallStatus, output, errMsg string) {
	jobs, err := a.history(ctx)
	if err != nil {
		return
	}
	if _, err := jobs.UpdateStatus(ctx, id, status, output, errMsg); err != nil && !errors.Is(err, history.ErrNotFound) {
		a.log.Warn("failed to update job", "id", id, "error", err)
	}
}

type propertyFlags struct {
	srcFormat    string
	unit         string
	materialUnit string
	material     float64
}

func newFilePropertyCmds(a *app) []*cobra.Command {
	type property struct {
		use, short string
		material   string
		run        func(ctx context.Context, f *os.File, src kittycad.FileImportFormat, p propertyFlags) (any, [][]string, error)
	}
	properties := []property{
		{
			use: "volume", short: "Compute the volume of a model",
			run: func(ctx context.Context, f *os.File, src kittycad.FileImportFormat, p propertyFlags) (any, [][]string, error) {
				params := kittycad.FileNewVolumeParams{FileBody: kittycad.FileBody{File: f}, SrcFormat: kittycad.F(src)}
				if p.unit != "" {
					params.OutputUnit = kittycad.F(kittycad.UnitVolume(p.unit))
				}
				res, err := a.client.File.NewVolume(ctx, params)
				if err != nil {
					return nil, nil, err
				}
				return res, [][]string{{res.ID.String(), string(res.Status), formatFloat(res.Volume), string(res.OutputUnit)}}, nil
			},
		},
		{
			use: "mass", short: "Compute the mass of a model of the given material density",
			material: "material-density",
			run: func(ctx context.Context, f *os.File, src kittycad.FileImportFormat, p propertyFlags) (any, [][]string, error) {
				params := kittycad.FileNewMassParams{
					FileBody:        kittycad.FileBody{File: f},
					SrcFormat:       kittycad.F(src),
					MaterialDensity: kittycad.F(p.material),
				}
				if p.materialUnit != "" {
					params.MaterialDensityUnit = kittycad.F(kittycad.UnitDensity(p.materialUnit))
				}
				if p.unit != "" {
					params.OutputUnit = kittycad.F(kittycad.UnitMass(p.unit))
				}
				res, err := a.client.File.NewMass(ctx, params)
				if err != nil {
					return nil, nil, err
				}
				return res, [][]string{{res.ID.String(), string(res.Status), formatFloat(res.Mass), string(res.OutputUnit)}}, nil
			},
		},
		{
			use: "density", short: "Compute the density of a model of the given material mass",
			material: "material-mass",
			run: func(ctx context.Context, f *os.File, src kittycad.FileImportFormat, p propertyFlags) (any, [][]string, error) {
				params := kittycad.FileNewDensityParams{
					FileBody:     kittycad.FileBody{File: f},
					SrcFormat:    kittycad.F(src),
					MaterialMass: kittycad.F(p.material),
				}
				if p.materialUnit != "" {
					params.MaterialMassUnit = kittycad.F(kittycad.UnitMass(p.materialUnit))
				}
				if p.unit != "" {
					params.OutputUnit = kittycad.F(kittycad.UnitDensity(p.unit))
				}
				res, err := a.client.File.NewDensity(ctx, params)
				if err != nil {
					return nil, nil, err
				}
				return res, [][]string{{res.ID.String(), string(res.Status), formatFloat(res.Density), string(res.OutputUnit)}}, nil
			},
		},
		{
			use: "center-of-mass", short: "Compute the center of mass of a model",
			run: func(ctx context.Context, f *os.File, src kittycad.FileImportFormat, p propertyFlags) (any, [][]string, error) {
				params := kittycad.FileNewCenterOfMassParams{FileBody: kittycad.FileBody{File: f}, SrcFormat: kittycad.F(src)}
				if p.unit != "" {
					params.OutputUnit = kittycad.F(kittycad.UnitLength(p.unit))
				}
				res, err := a.client.File.NewCenterOfMass(ctx, params)
				if err != nil {
					return nil, nil, err
				}
				value := ""
				if c := res.CenterOfMass; c != nil {
					value = fmt.Sprintf("%g, %g, %g", c.X, c.Y, c.Z)
				}
				return res, [][]string{{res.ID.String(), string(res.Status), value, string(res.OutputUnit)}}, nil
			},
		},
		{
			use: "surface-area", short: "Compute the surface area of a model",
			run: func(ctx context.Context, f *os.File, src kittycad.FileImportFormat, p propertyFlags) (any, [][]string, error) {
				params := kittycad.FileNewSurfaceAreaParams{FileBody: kittycad.FileBody{File: f}, SrcFormat: kittycad.F(src)}
				if p.unit != "" {
					params.OutputUnit = kittycad.F(kittycad.UnitArea(p.unit))
				}
				res, err := a.client.File.NewSurfaceArea(ctx, params)
				if err != nil {
					return nil, nil, err
				}
				return res, [][]string{{res.ID.String(), string(res.Status), formatFloat(res.SurfaceArea), string(res.OutputUnit)}}, nil
			},
		},
	}

	cmds := make([]*cobra.Command, 0, len(properties))
	for _, prop := range properties {
		var flags propertyFlags
		c := &cobra.Command{
			Use:   prop.use + " <file>",
			Short: prop.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				src, err := srcFormat(args[0], flags.srcFormat)
				if err != nil {
					return err
				}
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				res, rows, err := prop.run(cmd.Context(), f, src, flags)
				if err != nil {
					return err
				}
				return a.out.Result(res, []string{"id", "status", strings.ReplaceAll(prop.use, "-", "_"), "unit"}, func() [][]string { return rows })
			},
		}
		c.Flags().StringVar(&flags.srcFormat, "src-format", "", "Source format, when the extension does not tell")
		c.Flags().StringVar(&flags.unit, "unit", "", "Output unit")
		if prop.material != "" {
			c.Flags().Float64Var(&flags.material, prop.material, 0, "The "+strings.ReplaceAll(prop.material, "-", " ")+" of the material")
			c.Flags().StringVar(&flags.materialUnit, prop.material+"-unit", "", "Unit of --"+prop.material)
			c.MarkFlagRequired(prop.material)
		}
		cmds = append(cmds, c)
	}
	return cmds
}
