package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Rifine/smix/internal/diagnostics"
	"github.com/Rifine/smix/internal/scale"
)

// Options vary between the binaries that share this parser.
type Options struct {
	Name           string
	PreviewDefault bool
	Output         io.Writer
}

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, " ") }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type floatList []float32

func (l *floatList) String() string { return fmt.Sprint([]float32(*l)) }
func (l *floatList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return fmt.Errorf("invalid scale factor %q", part)
		}
		*l = append(*l, float32(f))
	}
	return nil
}

// flags that take every following value up to the next flag
var multiValue = map[string]bool{"mask-directories": true, "m": true, "scale": true, "s": true}

// flags whose value is optional and must be attached with '='
var boolValue = map[string]bool{"preview": true}

// Parse builds the configuration from command-line arguments. Precedence is
// defaults, then the --config file, then flags given explicitly on the
// command line. Positional arguments are the r, g and b weights.
func Parse(args []string, opts Options) (*Config, error) {
	if opts.Name == "" {
		opts.Name = "smix"
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	var (
		output      string
		dirs        stringList
		scales      floatList
		filter      = scale.Lanczos3
		preview     = opts.PreviewDefault
		previewSize = DefaultPreviewSize
		serve       string
		origins     stringList
		configPath  string
		writeConfig string
	)

	fs := flag.NewFlagSet(opts.Name, flag.ContinueOnError)
	fs.SetOutput(opts.Output)
	fs.StringVar(&output, "output", DefaultOutput, "output directory (created if missing)")
	fs.StringVar(&output, "o", DefaultOutput, "shorthand for --output")
	fs.Var(&dirs, "mask-directories", "directories containing r.png, g.png and b.png")
	fs.Var(&dirs, "m", "shorthand for --mask-directories")
	fs.Var(&scales, "scale", "scale factors, one output per factor (1 is always included)")
	fs.Var(&scales, "s", "shorthand for --scale")
	fs.Var(&filter, "filter", "resize filter: nearest | bilinear | catmull-rom | gaussian | lanczos3")
	fs.Var(&filter, "f", "shorthand for --filter")
	fs.BoolVar(&preview, "preview", opts.PreviewDefault, "open the interactive preview instead of exporting")
	fs.IntVar(&previewSize, "preview-size", DefaultPreviewSize, "edge length of the preview image")
	fs.StringVar(&serve, "serve", "", "serve the preview over websocket on this address (e.g. :8080)")
	fs.Var(&origins, "allow-origin", "extra browser origin allowed to use the websocket preview (repeatable)")
	fs.StringVar(&configPath, "config", "", "optional YAML config file")
	fs.StringVar(&writeConfig, "write-config", "", "write the effective config to this YAML file")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Image mixer (RGB channels only)\n\nusage: %s [flags] r g b\n\n", opts.Name)
		fs.PrintDefaults()
	}

	flagArgs, positional := splitArgs(args)
	if err := fs.Parse(flagArgs); err != nil {
		if err == flag.ErrHelp {
			return nil, err
		}
		return nil, diagnostics.Validationf("%v", err)
	}
	positional = append(positional, fs.Args()...)

	cfg := &Config{
		Output:      DefaultOutput,
		Filter:      scale.Lanczos3,
		Preview:     opts.PreviewDefault,
		PreviewSize: DefaultPreviewSize,
		previewSet:  true,
	}
	if configPath != "" {
		fileCfg, err := Load(configPath)
		if err != nil {
			return nil, err
		}
		overlay(cfg, fileCfg)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["output"] || set["o"] {
		cfg.Output = output
	}
	if len(dirs) > 0 {
		cfg.MaskDirectories = append([]string(nil), dirs...)
	}
	if len(scales) > 0 {
		cfg.Scales = append([]float32(nil), scales...)
	}
	if set["filter"] || set["f"] {
		cfg.Filter = filter
	}
	if set["preview"] {
		cfg.Preview = preview
	}
	if set["preview-size"] {
		cfg.PreviewSize = previewSize
	}
	if set["serve"] {
		cfg.Serve = serve
	}
	if len(origins) > 0 {
		cfg.AllowOrigins = append([]string(nil), origins...)
	}

	switch len(positional) {
	case 0:
	case 3:
		var w [3]float32
		for i, s := range positional {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, diagnostics.Validationf("%s weight %q is not a number", channelNames[i], s)
			}
			w[i] = float32(v)
		}
		cfg.Weights = &w
	default:
		return nil, diagnostics.Validationf("expected 3 weights (r g b), got %d arguments: %s", len(positional), strings.Join(positional, " "))
	}

	cfg.Scales = scale.Normalize(cfg.Scales)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if writeConfig != "" {
		if err := Save(writeConfig, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// overlay copies every non-zero field of src onto dst. preview is copied
// whenever the file sets it.
func overlay(dst, src *Config) {
	if src.Weights != nil {
		w := *src.Weights
		dst.Weights = &w
	}
	if src.Output != "" {
		dst.Output = src.Output
	}
	if len(src.MaskDirectories) > 0 {
		dst.MaskDirectories = append([]string(nil), src.MaskDirectories...)
	}
	if len(src.Scales) > 0 {
		dst.Scales = append([]float32(nil), src.Scales...)
	}
	if src.Filter != scale.Lanczos3 {
		dst.Filter = src.Filter
	}
	if src.previewSet {
		dst.Preview = src.Preview
	}
	if src.PreviewSize > 0 {
		dst.PreviewSize = src.PreviewSize
	}
	if src.Serve != "" {
		dst.Serve = src.Serve
	}
	if len(src.AllowOrigins) > 0 {
		dst.AllowOrigins = append([]string(nil), src.AllowOrigins...)
	}
}

// splitArgs rewrites multi-value groups such as "--scale 0.5 2" into
// "-scale=0.5 -scale=2" and separates positional arguments, so that flags and
// weights may appear in any order.
func splitArgs(args []string) (flags, positional []string) {
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !isFlag(tok) {
			positional = append(positional, tok)
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(tok, "-"), "=")
		switch {
		case multiValue[name]:
			if hasValue {
				flags = append(flags, "-"+name+"="+value)
				continue
			}
			for i+1 < len(args) && args[i+1] != "--" && !isFlag(args[i+1]) {
				i++
				flags = append(flags, "-"+name+"="+args[i])
			}
		case boolValue[name] && !hasValue:
			if i+1 < len(args) {
				if v := strings.ToLower(args[i+1]); v == "true" || v == "false" {
					i++
					flags = append(flags, "-"+name+"="+args[i])
					continue
				}
			}
			flags = append(flags, "-"+name)
		default:
			flags = append(flags, tok)
			if !hasValue && i+1 < len(args) && takesValue(name) {
				i++
				flags = append(flags, args[i])
			}
		}
	}
	return flags, positional
}

// isFlag reports whether tok names a flag. Negative numbers are values.
func isFlag(tok string) bool {
	if len(tok) < 2 || tok[0] != '-' {
		return false
	}
	_, err := strconv.ParseFloat(tok, 64)
	return err != nil
}

func takesValue(name string) bool {
	switch name {
	case "h", "help":
		return false
	}
	return true
}
