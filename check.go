package vintfcheck

import (
	"errors"

	"github.com/google/uuid"
	"github.com/leodido/vintfcheck/vintf"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// SuppressedChecks is the check-flag set evaluations run with unless
// [WithCheckFlags] says otherwise. Kernel, AVB and runtime-info predicates
// are all disabled because the facts they need belong to the device
// running the check, not to the snapshot under evaluation.
const SuppressedChecks = vintf.DisableAllChecks

// evalConfig holds the configuration for an evaluation.
type evalConfig struct {
	logger zerolog.Logger
	base   afero.Fs // nil means the OS filesystem
	flags  vintf.CheckFlags
}

// Option configures an evaluation.
type Option func(*evalConfig)

// WithLogger routes diagnostics to l. Evaluations are silent by default.
func WithLogger(l zerolog.Logger) Option {
	return func(c *evalConfig) {
		c.logger = l
	}
}

// WithFileSystem resolves the root path inside fsys instead of the OS
// filesystem.
func WithFileSystem(fsys afero.Fs) Option {
	return func(c *evalConfig) {
		c.base = fsys
	}
}

// WithCheckFlags overrides [SuppressedChecks]. Runtime categories can only
// fail: the runtime info provider of an evaluation never returns facts.
func WithCheckFlags(flags vintf.CheckFlags) Option {
	return func(c *evalConfig) {
		c.flags = flags
	}
}

func newEvalConfig(opts []Option) *evalConfig {
	cfg := &evalConfig{logger: zerolog.Nop(), flags: SuppressedChecks}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// CheckCompatibilityMatrix reports whether the device snapshot mounted at
// rootPath satisfies the framework compatibility matrix in matrixText.
// It returns [CodeCompatible], [CodeIncompatible], [CodeParseFailed] or
// [CodeResolutionFailed]. It never panics on malformed input.
func CheckCompatibilityMatrix(matrixText, rootPath, vendorSku, hardwareSku string, opts ...Option) int {
	return Evaluate(matrixText, rootPath, vendorSku, hardwareSku, opts...).Code()
}

// Evaluate is [CheckCompatibilityMatrix] returning the full [Result].
//
// The steps run in order and stop at the first failure:
//  1. parse matrixText as a compatibility matrix;
//  2. build an environment rooted at rootPath with the SKU overrides
//     and a runtime info provider that never succeeds;
//  3. resolve the device manifest;
//  4. check the manifest against the matrix, by default with
//     [SuppressedChecks].
//
// A compatible result therefore means compatible on every predicate that
// does not need runtime facts.
func Evaluate(matrixText, rootPath, vendorSku, hardwareSku string, opts ...Option) Result {
	cfg := newEvalConfig(opts)
	id := uuid.NewString()
	logger := cfg.logger.With().Str("evaluation", id).Str("root", rootPath).Logger()

	matrix, err := vintf.ParseMatrix(matrixText)
	if err != nil {
		logger.Error().Err(err).Msg("cannot parse compatibility matrix")
		return Result{Status: StatusParseFailed, Err: &ParseError{Err: err}, EvaluationID: id}
	}

	obj, err := newObject(rootPath, vendorSku, hardwareSku, cfg.base, logger)
	if err != nil {
		logger.Error().Err(err).Msg("cannot build evaluation environment")
		return Result{Status: StatusResolutionFailed, Err: &ResolutionError{Root: rootPath, Err: err}, EvaluationID: id}
	}

	manifest, err := obj.DeviceHalManifest()
	if err == nil && manifest == nil {
		err = vintf.ErrManifestNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msg("loading device manifest failed")
		return Result{Status: StatusResolutionFailed, Err: &ResolutionError{Root: rootPath, Err: err}, EvaluationID: id}
	}

	ok, detail := obj.CheckCompatibility(matrix, cfg.flags)
	if detail != nil {
		logger.Error().Err(detail).Msg("compatibility check failed")
	}
	if !ok {
		if detail == nil {
			detail = errors.New("incompatible")
		}
		return Result{Status: StatusIncompatible, Err: detail, EvaluationID: id}
	}
	logger.Info().Int("hals", len(manifest.Hals)).Stringer("checks", cfg.flags).Msg("device manifest is compatible")
	return Result{Status: StatusCompatible, EvaluationID: id}
}

// newObject builds the evaluation environment for a snapshot.
func newObject(rootPath, vendorSku, hardwareSku string, base afero.Fs, logger zerolog.Logger) (*vintf.Object, error) {
	return vintf.NewBuilder().
		SetFileSystem(rootedFileSystem(rootPath, base)).
		SetPropertyFetcher(NewSkuPropertyFetcher(vendorSku, hardwareSku, logger)).
		SetRuntimeInfoFactory(StaticRuntimeInfoFactory{}).
		SetLogger(logger).
		Build()
}
