package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/leodido/structcli"
	"github.com/leodido/vintfcheck"
	"github.com/leodido/vintfcheck/vintf"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Build metadata injected via ldflags.
// When built without ldflags these remain at their zero values and the
// version command omits them.
var (
	version = ""
	commit  = ""
	date    = ""
)

const (
	sepolicyAuto = "auto"
	sepolicyNone = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vintfcheck",
		Short: "Check a device image against framework compatibility matrices",
		Long: `vintfcheck decides whether a vendor image, mounted or extracted as a plain
directory, satisfies framework compatibility matrices.

The device manifest is resolved from the directory tree the way the platform
resolves it on a running device, with the vendor and hardware SKU supplied on
the command line. Kernel, AVB and runtime checks are skipped: their facts
belong to the machine running the check, not to the image.`,
		SilenceUsage: true,
	}

	root.AddCommand(checkCmd())
	root.AddCommand(manifestCmd())
	root.AddCommand(sepolicyCmd())
	root.AddCommand(runtimeCmd())
	root.AddCommand(versionCmd())
	return root
}

// CheckOptions defines flags for the check subcommand.
type CheckOptions struct {
	Root        string       `flag:"root" flagshort:"r" flagdescr:"Directory holding the device image" flagrequired:"true" validate:"required,dir"`
	VendorSku   string       `flag:"vendor-sku" flagdescr:"Value of ro.boot.product.vendor.sku"`
	HardwareSku string       `flag:"hardware-sku" flagdescr:"Value of ro.boot.product.hardware.sku"`
	Sepolicy    string       `flag:"sepolicy" flagdescr:"Sepolicy version injected into each matrix: auto, none or MAJOR.MINOR" default:"auto" validate:"sepolicy"`
	Format      outputFormat `flag:"format" flagshort:"o" flagdescr:"Output format (text, json)" flagcustom:"true"`
	LogLevel    string       `flag:"log-level" flagdescr:"Log level written to stderr" default:"warn" validate:"loglevel"`
}

func (o *CheckOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *CheckOptions) DefineFormat(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	return defineFormat(descr, fieldValue)
}

func (o *CheckOptions) DecodeFormat(input any) (any, error) {
	return decodeFormat(input)
}

// CompleteSepolicy offers the symbolic --sepolicy modes.
func (o *CheckOptions) CompleteSepolicy(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, mode := range []string{sepolicyAuto, sepolicyNone} {
		if strings.HasPrefix(mode, strings.ToLower(toComplete)) {
			out = append(out, mode)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

type matrixResult struct {
	Matrix     string `json:"matrix"`
	Status     string `json:"status"`
	Code       int    `json:"code"`
	Error      string `json:"error,omitempty"`
	Evaluation string `json:"evaluation"`
}

func checkCmd() *cobra.Command {
	opts := &CheckOptions{Sepolicy: sepolicyAuto, LogLevel: "warn"}

	cmd := &cobra.Command{
		Use:   "check MATRIX...",
		Short: "Check the device image against one or more compatibility matrices",
		Long: `Check the device image against each matrix file in order.

Exits with code 0 if at least one matrix is satisfied, 1 if none is, and 2
when the answer is unknown: a matrix failed to parse, or the device targets a
level newer than every matrix given.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(c *cobra.Command, args []string) error {
			if err := structcli.Unmarshal(c, opts); err != nil {
				return err
			}
			return validateOptions(opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			logger := newLogger(opts.LogLevel)

			texts, err := readMatrices(args)
			if err != nil {
				return err
			}
			texts, err = injectSepolicy(texts, opts.Root, opts.Sepolicy, logger)
			if err != nil {
				return err
			}

			results := vintfcheck.CheckMatrices(texts, opts.Root, opts.VendorSku, opts.HardwareSku, vintfcheck.WithLogger(logger))

			// The device facts only refine the verdict; failures are already
			// part of the results.
			device, err := vintfcheck.InspectDevice(opts.Root, opts.VendorSku, opts.HardwareSku, vintfcheck.WithLogger(logger))
			if err != nil {
				logger.Debug().Err(err).Msg("device facts incomplete")
			}
			idx, verdict := vintfcheck.DecideForLevel(results, device.Level, vintfcheck.MaxMatrixLevel(texts))

			if opts.Format == formatJSON {
				out := make([]matrixResult, 0, len(results))
				for i, r := range results {
					out = append(out, toMatrixResult(args[i], r))
				}
				summary := map[string]any{
					"ok":      verdict == vintfcheck.VerdictCompatible,
					"verdict": verdict.String(),
					"index":   idx,
					"level":   device.Level.String(),
					"results": out,
				}
				if device.VendorNDK != "" {
					summary["vendor_ndk"] = device.VendorNDK
				}
				if err := printJSON(os.Stdout, summary); err != nil {
					return err
				}
			} else {
				writeResults(os.Stdout, args, results)
				writeVerdict(os.Stdout, verdict, device)
			}

			if code := verdictExitCode(verdict); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func toMatrixResult(name string, r vintfcheck.Result) matrixResult {
	out := matrixResult{
		Matrix:     name,
		Status:     r.Status.String(),
		Code:       r.Code(),
		Evaluation: r.EvaluationID,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func writeResults(w io.Writer, names []string, results []vintfcheck.Result) {
	for i, r := range results {
		fmt.Fprintf(w, "%s: %s\n", filepath.Base(names[i]), r)
	}
}

func writeVerdict(w io.Writer, verdict vintfcheck.Verdict, device vintfcheck.DeviceInfo) {
	fmt.Fprintf(w, "Verdict: %s\n", verdict)
	if device.Level != vintf.LevelUnspecified {
		fmt.Fprintf(w, "Target level: %s\n", device.Level)
	}
	if device.VendorNDK != "" {
		fmt.Fprintf(w, "Vendor NDK: %s\n", device.VendorNDK)
	}
}

func verdictExitCode(v vintfcheck.Verdict) int {
	switch v {
	case vintfcheck.VerdictCompatible:
		return 0
	case vintfcheck.VerdictUnknown:
		return 2
	default:
		return 1
	}
}

func readMatrices(paths []string) ([]string, error) {
	texts := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read matrix: %w", err)
		}
		texts = append(texts, string(data))
	}
	return texts, nil
}

// injectSepolicy applies the --sepolicy mode to every matrix text.
func injectSepolicy(texts []string, root, mode string, logger zerolog.Logger) ([]string, error) {
	var v vintf.Version
	switch mode {
	case sepolicyNone:
		return texts, nil
	case sepolicyAuto:
		detected, err := vintfcheck.DetectSepolicyVersion(imageFs(root))
		if errors.Is(err, vintfcheck.ErrNoSepolicyVersion) {
			logger.Warn().Str("root", root).Msg("vendor sepolicy version not found, matrices left unchanged")
			return texts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("detect sepolicy version: %w", err)
		}
		v = detected
	default:
		parsed, ok := vintfcheck.ParseSepolicyVersion(mode)
		if !ok {
			return nil, fmt.Errorf("invalid sepolicy version %q", mode)
		}
		v = parsed
	}

	logger.Info().Stringer("sepolicy", v).Msg("injecting sepolicy version")
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		out = append(out, vintfcheck.InjectSepolicy(t, v))
	}
	return out, nil
}

// ManifestOptions defines flags for the manifest subcommand.
type ManifestOptions struct {
	Root        string       `flag:"root" flagshort:"r" flagdescr:"Directory holding the device image" flagrequired:"true" validate:"required,dir"`
	VendorSku   string       `flag:"vendor-sku" flagdescr:"Value of ro.boot.product.vendor.sku"`
	HardwareSku string       `flag:"hardware-sku" flagdescr:"Value of ro.boot.product.hardware.sku"`
	Format      outputFormat `flag:"format" flagshort:"o" flagdescr:"Output format (text, json)" flagcustom:"true"`
	LogLevel    string       `flag:"log-level" flagdescr:"Log level written to stderr" default:"warn" validate:"loglevel"`
}

func (o *ManifestOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *ManifestOptions) DefineFormat(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	return defineFormat(descr, fieldValue)
}

func (o *ManifestOptions) DecodeFormat(input any) (any, error) {
	return decodeFormat(input)
}

type halView struct {
	Format    string   `json:"format"`
	Name      string   `json:"name"`
	Transport string   `json:"transport,omitempty"`
	Versions  []string `json:"versions"`
	Instances []string `json:"instances,omitempty"`
}

func manifestCmd() *cobra.Command {
	opts := &ManifestOptions{LogLevel: "warn"}

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Resolve and display the device manifest of the image",
		PreRunE: func(c *cobra.Command, args []string) error {
			if err := structcli.Unmarshal(c, opts); err != nil {
				return err
			}
			return validateOptions(opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			logger := newLogger(opts.LogLevel)

			device, err := vintfcheck.InspectDevice(opts.Root, opts.VendorSku, opts.HardwareSku, vintfcheck.WithLogger(logger))
			var resolution *vintfcheck.ResolutionError
			if errors.As(err, &resolution) {
				return err
			}

			if opts.Format == formatJSON {
				view := manifestView(device.Manifest)
				if device.VendorNDK != "" {
					view["vendor_ndk"] = device.VendorNDK
				}
				return printJSON(os.Stdout, view)
			}
			fmt.Print(vintfcheck.FormatManifest(device.Manifest))
			if device.VendorNDK != "" {
				fmt.Printf("Vendor NDK: %s\n", device.VendorNDK)
			}
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func manifestView(m *vintf.HalManifest) map[string]any {
	hals := make([]halView, 0, len(m.Hals))
	for i := range m.Hals {
		h := &m.Hals[i]
		hv := halView{
			Format:    h.Format.String(),
			Name:      h.Name,
			Transport: h.Transport.String(),
			Versions:  []string{},
		}
		for _, v := range h.AllVersions() {
			hv.Versions = append(hv.Versions, v.String())
		}
		for _, fq := range h.Instances() {
			hv.Instances = append(hv.Instances, fq.String())
		}
		hals = append(hals, hv)
	}
	out := map[string]any{
		"type":  m.Type.String(),
		"level": m.Level.String(),
		"hals":  hals,
	}
	if !m.SepolicyVersion.IsZero() {
		out["sepolicy"] = m.SepolicyVersion.String()
	}
	if m.Kernel != nil && !m.Kernel.Version.IsZero() {
		out["kernel"] = m.Kernel.Version.String()
	}
	return out
}

// SepolicyOptions defines flags for the sepolicy subcommand.
type SepolicyOptions struct {
	Root string `flag:"root" flagshort:"r" flagdescr:"Directory holding the device image" flagrequired:"true" validate:"required,dir"`
}

func (o *SepolicyOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func sepolicyCmd() *cobra.Command {
	opts := &SepolicyOptions{}

	cmd := &cobra.Command{
		Use:   "sepolicy",
		Short: "Display the platform sepolicy version the vendor image targets",
		PreRunE: func(c *cobra.Command, args []string) error {
			if err := structcli.Unmarshal(c, opts); err != nil {
				return err
			}
			return validateOptions(opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			v, err := vintfcheck.DetectSepolicyVersion(imageFs(opts.Root))
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// RuntimeOptions defines flags for the runtime subcommand.
type RuntimeOptions struct {
	Format outputFormat `flag:"format" flagshort:"o" flagdescr:"Output format (text, json)" flagcustom:"true"`
}

func (o *RuntimeOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *RuntimeOptions) DefineFormat(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	return defineFormat(descr, fieldValue)
}

func (o *RuntimeOptions) DecodeFormat(input any) (any, error) {
	return decodeFormat(input)
}

func runtimeCmd() *cobra.Command {
	opts := &RuntimeOptions{}

	cmd := &cobra.Command{
		Use:   "runtime",
		Short: "Display runtime facts of the kernel this tool runs on",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			info := vintf.LiveRuntimeInfoFactory{}.NewRuntimeInfo()
			facts, err := info.Fetch(vintf.FetchAll)
			if errors.Is(err, vintf.ErrNoKernelConfig) {
				facts, err = info.Fetch(vintf.FetchAll &^ vintf.FetchConfigGz)
			}
			if err != nil {
				return err
			}

			if opts.Format == formatJSON {
				return printJSON(os.Stdout, runtimeView(facts))
			}
			writeRuntimeFacts(os.Stdout, facts)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// binderConfig is the kernel option every Treble device needs for
// hwbinder and vndbinder.
const binderConfig = "ANDROID_BINDER_IPC"

func runtimeView(facts *vintf.RuntimeFacts) map[string]any {
	return map[string]any{
		"os":                      facts.OSName,
		"release":                 facts.OSRelease,
		"machine":                 facts.HardwareID,
		"kernel":                  facts.KernelVersion.String(),
		"kernel_configs":          facts.KernelConfig.Len(),
		"binder":                  facts.KernelConfig.IsSet(binderConfig),
		"kernel_sepolicy_version": facts.KernelSepolicyVersion,
		"avb_version":             facts.BootAVBVersion.String(),
	}
}

func writeRuntimeFacts(w io.Writer, facts *vintf.RuntimeFacts) {
	binder := "no"
	if facts.KernelConfig.IsSet(binderConfig) {
		binder = "yes"
	}
	fmt.Fprintf(w, "OS:                      %s %s (%s)\n", facts.OSName, facts.OSRelease, facts.HardwareID)
	fmt.Fprintf(w, "Kernel:                  %s\n", facts.KernelVersion)
	fmt.Fprintf(w, "Kernel configs:          %d\n", facts.KernelConfig.Len())
	fmt.Fprintf(w, "Binder IPC:              %s\n", binder)
	fmt.Fprintf(w, "Kernel sepolicy version: %d\n", facts.KernelSepolicyVersion)
	fmt.Fprintf(w, "AVB version:             %s\n", facts.BootAVBVersion)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show tool and kernel version",
		RunE: func(c *cobra.Command, args []string) error {
			if version != "" {
				fmt.Printf("vintfcheck %s", version)
				if commit != "" {
					fmt.Printf(" (%s)", commit)
				}
				if date != "" {
					fmt.Printf(" built %s", date)
				}
				fmt.Println()
			} else {
				fmt.Println("vintfcheck (dev)")
			}

			facts, err := vintf.LiveRuntimeInfoFactory{}.NewRuntimeInfo().Fetch(vintf.FetchCPUVersion)
			if err != nil {
				// Kernel details are best effort.
				return nil
			}
			fmt.Printf("Kernel: %s\n", facts.KernelVersion)
			return nil
		},
	}
}

// imageFs exposes the device image directory as a read-only filesystem.
func imageFs(root string) afero.Fs {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), root))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
