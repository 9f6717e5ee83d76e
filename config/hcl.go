package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// LoadFile reads an HCL configuration file. Top-level attributes map to
// their own name; attributes inside a one-level block map to
// "block/attribute", matching the recognized keys:
//
//	memory_cache {
//	  unused_size_limit = 1048576
//	}
//	rpclib {
//	  port        = 8098
//	  auth_secret = env.CRADLE_RPC_SECRET
//	}
//	testing = false
//
// Environment variables are reachable as env.VAR; string values
// additionally undergo strict ${ENV} expansion ("$${VAR}" in HCL).
func LoadFile(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(src, path)
}

// Parse reads HCL configuration from a byte slice. filename is used in
// diagnostics only.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, diags.Error())
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected body type", ErrInvalidConfig)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envObject()},
	}

	m := make(map[string]any)
	if err := collectAttrs(body, "", evalCtx, m); err != nil {
		return nil, err
	}
	for _, block := range body.Blocks {
		if len(block.Body.Blocks) > 0 {
			return nil, fmt.Errorf("%w: nested blocks are not supported (%s)", ErrInvalidConfig, block.Type)
		}
		if err := collectAttrs(block.Body, block.Type+"/", evalCtx, m); err != nil {
			return nil, err
		}
	}
	return &Config{m: m}, nil
}

// envObject exposes the process environment to HCL expressions as
// env.SOME_VAR.
func envObject() cty.Value {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			vars[kv[:i]] = cty.StringVal(kv[i+1:])
		}
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}

func collectAttrs(body *hclsyntax.Body, prefix string, evalCtx *hcl.EvalContext, out map[string]any) error {
	for name, attr := range body.Attributes {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, prefix+name, diags.Error())
		}
		converted, err := fromCty(val)
		if err != nil {
			return fmt.Errorf("%s: %w", prefix+name, err)
		}
		out[prefix+name] = converted
	}
	return nil
}

func fromCty(val cty.Value) (any, error) {
	switch {
	case val.Type() == cty.Bool:
		return val.True(), nil
	case val.Type() == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		if i, acc := val.AsBigFloat().Int64(); acc == 0 {
			return i, nil
		}
		return f, nil
	case val.Type() == cty.String:
		return ExpandEnvStrict(val.AsString())
	default:
		return nil, fmt.Errorf("%w: unsupported value type %s", ErrInvalidConfig, val.Type().FriendlyName())
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands environment variables in s.
//
// Semantics:
//   - `${VAR}` is expanded from the environment.
//   - If `${VAR}` is present but VAR is unset, it errors.
//   - `$$` emits a literal `$`.
func ExpandEnvStrict(s string) (string, error) {
	const dollarSentinel = "\x00CRADLE_CONFIG_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok {
			missing[match[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(keys, ", "))
	}

	s = envVarPattern.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
	s = strings.ReplaceAll(s, dollarSentinel, "$")
	return s, nil
}
