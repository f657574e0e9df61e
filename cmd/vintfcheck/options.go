package main

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/leodido/vintfcheck"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"
)

// outputFormat selects how results are printed.
type outputFormat enumflag.Flag

const (
	formatText outputFormat = iota
	formatJSON
)

var outputFormatIDs = map[outputFormat][]string{
	formatText: {"text"},
	formatJSON: {"json"},
}

func (f outputFormat) String() string {
	if ids, ok := outputFormatIDs[f]; ok {
		return ids[0]
	}
	return fmt.Sprintf("outputFormat(%d)", f)
}

func parseOutputFormat(input string) (outputFormat, error) {
	var f outputFormat
	v := enumflag.New(&f, "format", outputFormatIDs, enumflag.EnumCaseInsensitive)
	if err := v.Set(strings.TrimSpace(input)); err != nil {
		return formatText, fmt.Errorf("unknown format: %q (available: text, json)", input)
	}
	return f, nil
}

// defineFormat binds a --format flag directly to the option field.
func defineFormat(descr string, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*outputFormat)
	return enumflag.New(fieldPtr, "format", outputFormatIDs, enumflag.EnumCaseInsensitive), descr
}

func decodeFormat(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}
	return parseOutputFormat(s)
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance returns the shared validator with the CLI's custom tags.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
			_, err := zerolog.ParseLevel(strings.ToLower(fl.Field().String()))
			return err == nil
		})

		_ = v.RegisterValidation("sepolicy", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == sepolicyAuto || s == sepolicyNone {
				return true
			}
			_, ok := vintfcheck.ParseSepolicyVersion(s)
			return ok
		})

		validateInst = v
	})
	return validateInst
}

func validateOptions(opts any) error {
	if err := validatorInstance().Struct(opts); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid value %q for %s (%s)", fmt.Sprint(fe.Value()), strings.ToLower(fe.Field()), fe.Tag())
		}
		return err
	}
	return nil
}

// newLogger writes human-readable logs to stderr.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	console := zerolog.NewConsoleWriter()
	console.Out = os.Stderr
	console.TimeFormat = time.RFC3339
	return zerolog.New(console).Level(lvl).With().Timestamp().Logger()
}
