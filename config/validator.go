package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a batch file validation error.
type ValidationError struct {
	// Path is the path to the invalid field
	Path string

	// Message describes the validation error
	Message string
}

// Error returns the error message.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Use json tag names for field paths
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateBatch validates the batch and returns a slice of validation
// errors, sorted by path. An empty slice indicates the batch is valid.
//
// Example:
//
//	errs := config.ValidateBatch(batch)
//	for _, err := range errs {
//	    log.Printf("Validation error: %s", err)
//	}
func ValidateBatch(batch *Batch) []ValidationError {
	var errs []ValidationError

	if err := getValidator().Struct(batch); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []ValidationError{{Path: "batch", Message: err.Error()}}
		}
		for _, fe := range fieldErrs {
			errs = append(errs, ValidationError{
				Path:    strings.TrimPrefix(fe.Namespace(), "Batch."),
				Message: formatFieldError(fe),
			})
		}
	}

	for name, ep := range batch.Endpoints {
		if ep.Scheme != "" && !strings.Contains(ep.Scheme, "{{") {
			if s := strings.ToLower(ep.Scheme); s != "http" && s != "https" {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("endpoints[%s].scheme", name),
					Message: fmt.Sprintf("must be http or https, got %q", ep.Scheme),
				})
			}
		}
	}

	seen := make(map[string]int, len(batch.Requests))
	for i, req := range batch.Requests {
		path := fmt.Sprintf("requests[%d]", i)

		if req.Name != "" {
			if first, dup := seen[req.Name]; dup {
				errs = append(errs, ValidationError{
					Path:    path + ".name",
					Message: fmt.Sprintf("duplicate name %q (first used by requests[%d])", req.Name, first),
				})
			} else {
				seen[req.Name] = i
			}
		}

		if req.Endpoint != "" {
			if _, ok := batch.Endpoints[req.Endpoint]; !ok {
				errs = append(errs, ValidationError{
					Path:    path + ".endpoint",
					Message: fmt.Sprintf("endpoint not found: %s", req.Endpoint),
				})
			}
		}

		if req.Body != nil && req.RawBody != nil {
			errs = append(errs, ValidationError{
				Path:    path + ".body",
				Message: "body and rawBody are mutually exclusive",
			})
		}

		if req.Schema != "" {
			if _, ok := batch.Schemas[req.Schema]; !ok {
				errs = append(errs, ValidationError{
					Path:    path + ".schema",
					Message: fmt.Sprintf("schema not found: %s", req.Schema),
				})
			}
		}

		for varName, expr := range req.Extract {
			if strings.TrimSpace(expr) == "" {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("%s.extract.%s", path, varName),
					Message: "extract path cannot be empty",
				})
			}
		}
	}

	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Path < errs[j].Path })
	return errs
}

// Validate runs ValidateBatch and folds any findings into one
// *http.ConfigError.
func Validate(batch *Batch) error {
	errs := ValidateBatch(batch)
	if len(errs) == 0 {
		return nil
	}
	return foldErrors(errs)
}

// ValidationErrors is the error wrapped by the ConfigError Validate
// returns.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	return fmt.Sprintf("%d validation error(s)", len(v))
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when " + strings.Replace(e.Param(), " ", " is ", 1)
	case "min":
		return "must have at least " + e.Param() + " entries"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
