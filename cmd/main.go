package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/brandquad/labtex"
	"github.com/brandquad/labtex/colorutils"
	"github.com/davidbyttow/govips/v2/vips"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	OutputDir   string `envconfig:"LABTEX_OUTPUT_DIR" default:"textures"`
	Bins        int    `envconfig:"LABTEX_BINS" default:"3"`
	Scheme      string `envconfig:"LABTEX_SCHEME" default:"cube"`
	Method      string `envconfig:"LABTEX_METHOD" default:"average"`
	Format      string `envconfig:"LABTEX_FORMAT" default:"all"`
	BatchSize   int    `envconfig:"LABTEX_BATCH_SIZE" default:"100000"`
	Step        int    `envconfig:"LABTEX_STEP" default:"1"`
	BoxSize     int    `envconfig:"LABTEX_BOX_SIZE" default:"64"`
	MaxCpuCount int    `envconfig:"MAX_CPU_COUNT" default:"4"`
	MatrixPath  string `envconfig:"LABTEX_MATRIX_PATH" default:"color-matrices/w2c39.txt"`
	NamesPath   string `envconfig:"LABTEX_NAMES_PATH" default:"color-matrices/colornames.txt"`
	LUTPath     string `envconfig:"LABTEX_LUT_PATH" default:"textures/color_names_w2c_argmax.bin"`
	Compress    bool   `envconfig:"LABTEX_COMPRESS" default:"false"`
	CubeSize    int    `envconfig:"LABTEX_CUBE_SIZE" default:"33"`
	OptimizePNG bool   `envconfig:"LABTEX_OPTIMIZE_PNG" default:"false"`
	CompareH    int    `envconfig:"LABTEX_COMPARE_HEIGHT" default:"512"`
	DebugMode   bool   `envconfig:"LABTEX_DEBUG" default:"false"`
}

func (c Config) MakeLabtexConfig() labtex.Config {
	formats, err := labtex.ParseFormats(c.Format)
	if err != nil {
		log.Fatalln(err)
	}
	return labtex.Config{
		OutputDir:   c.OutputDir,
		Scheme:      c.Scheme,
		Bins:        c.Bins,
		Method:      c.Method,
		Formats:     formats,
		BatchSize:   c.BatchSize,
		Step:        c.Step,
		BoxSize:     c.BoxSize,
		MaxCpuCount: c.MaxCpuCount,
		MatrixPath:  c.MatrixPath,
		NamesPath:   c.NamesPath,
		LUTPath:     c.LUTPath,
		Compress:    c.Compress,
		CubeSize:    c.CubeSize,
		OptimizePNG: c.OptimizePNG,
		DebugMode:   c.DebugMode,
	}
}

const usage = `usage: labtex <command> [args]

commands:
  build                      Lab binning texture (LABTEX_BINS, LABTEX_METHOD)
  classify                   colour-name texture from the w2c matrix
  recolor <image>...         recolour images through LABTEX_LUT_PATH
  lookup <r> <g> <b>         colour name and probabilities of one colour
  report                     bin analysis document
  coverage                   share of Lab space reached by sRGB
  compare <a> <b> <out>      side by side comparison image
  normalize <in> <out>       rescale matrix rows to sum to 1
`

func main() {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		log.Fatalln(err)
	}

	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	vips.LoggingSettings(func(messageDomain string, verbosity vips.LogLevel, message string) {}, vips.LogLevelInfo)
	vips.Startup(&vips.Config{
		ConcurrencyLevel: c.MaxCpuCount,
	})
	defer vips.Shutdown()

	config := c.MakeLabtexConfig()
	if err := run(flag.Arg(0), flag.Args()[1:], config, c); err != nil {
		log.Fatalln(err)
	}
}

func run(command string, args []string, config labtex.Config, c Config) error {
	switch command {
	case "build":
		manifest, err := labtex.BuildTexture(config)
		if err != nil {
			return err
		}
		log.Println(manifest.Files)
	case "classify":
		manifest, err := labtex.BuildClassification(config)
		if err != nil {
			return err
		}
		log.Println(manifest.Files)
	case "recolor":
		if len(args) < 1 {
			return fmt.Errorf("recolor needs at least one image")
		}
		lut, err := labtex.LoadLUT(config.LUTPath, config.MaxCpuCount)
		if err != nil {
			return err
		}
		for _, input := range args {
			output, err := labtex.RecolorFile(input, "", lut, config.MaxCpuCount)
			if err != nil {
				return err
			}
			log.Println("Saved:", output)
		}
	case "lookup":
		return lookup(args, config)
	case "report":
		p, err := labtex.BuildReport(config)
		if err != nil {
			return err
		}
		log.Println("Saved:", p)
	case "coverage":
		coverage, err := labtex.GamutCoverage(labtex.EnumerateOptions{
			BatchSize: config.BatchSize,
			Step:      config.Step,
			Workers:   config.MaxCpuCount,
			Debug:     config.DebugMode,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%d/%d (%.2f%%)\n", coverage.Occupied, coverage.Total, coverage.Percent)
	case "compare":
		if len(args) < 3 {
			return fmt.Errorf("compare needs <original> <recolored> <output>")
		}
		return labtex.CompareFiles(args[0], args[1], args[2], c.CompareH)
	case "normalize":
		if len(args) < 2 {
			return fmt.Errorf("normalize needs <input> <output>")
		}
		return normalize(args[0], args[1])
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func lookup(args []string, config labtex.Config) error {
	if len(args) < 3 {
		return fmt.Errorf("lookup needs <r> <g> <b>")
	}
	var v [3]uint8
	for i := range v {
		n, err := strconv.ParseUint(args[i], 10, 8)
		if err != nil {
			return fmt.Errorf("channel %q: %w", args[i], err)
		}
		v[i] = uint8(n)
	}
	rgb := colorutils.RGB{R: v[0], G: v[1], B: v[2]}

	classifier, err := labtex.LoadClassifier(config.MatrixPath, config.NamesPath)
	if err != nil {
		return err
	}
	lab := rgb.Lab()
	fmt.Printf("%s Lab(%.2f, %.2f, %.2f) bin %d\n", rgb, lab.L, lab.A, lab.B, classifier.Indexer().Index(lab))

	cl, ok := classifier.Classify(rgb)
	if !ok {
		fmt.Println("no probabilities for this bin, colour passes through")
		return nil
	}
	fmt.Printf("%s (%.4f) -> %s %s\n", cl.Name, cl.Probability, cl.Color, cl.Hex)
	probs, _ := classifier.Probabilities(rgb)
	for i, p := range probs {
		if p > 0 {
			fmt.Printf("  %2d %-12s %.4f\n", i, classifier.Names()[i], p)
		}
	}
	return nil
}

func normalize(input, output string) error {
	m, err := labtex.LoadMatrix(input)
	if err != nil {
		return err
	}
	m.Normalize()
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err = m.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}
