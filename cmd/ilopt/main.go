package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/config"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/diag"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/il"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/ilfmt"
	"github.com/HexaEngine/HexaEngine.ShaderLang-sub003/internal/optimizer"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: ilopt [--debug] [--no-parallel] <file.il>")
		os.Exit(1)
	}

	cfg := config.Default()
	var path string
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--debug":
			cfg.DebugTrace = true
		case "--no-parallel":
			cfg.Parallel = false
		default:
			path = arg
		}
	}
	if path == "" {
		fmt.Println("Usage: ilopt [--debug] [--no-parallel] <file.il>")
		os.Exit(1)
	}

	mod, err := ilfmt.ParseFile(path)
	if err != nil {
		// ilfmt.ParseFile already reported the caret-style syntax error.
		os.Exit(1)
	}

	logger := &diag.CollectingLogger{}
	driver := optimizer.NewDriver(cfg, logger)
	results := driver.Run(mod)

	var failed bool
	for _, r := range results {
		if r.Err != nil {
			failed = true
			color.Red("%s: %s", r.Name, r.Err)
		}
	}

	diag.Render(logger.Entries)
	fmt.Println(il.NewPrinter().PrintModule(mod))

	if failed {
		color.Red("optimization failed for one or more functions in %s", path)
		os.Exit(1)
	}
	color.Green("optimized %s", path)
}
