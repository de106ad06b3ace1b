// Command storier runs storier scripts from a file or an interactive REPL.
//
// It doubles as a reference host: it registers a handful of native functions
// (print, echo, clamp) the way the document engine registers its drawing and
// input primitives, and seeds a few well-known globals.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	storier "github.com/maddestlabs/storier"
)

const (
	appName     = "storier"
	historyFile = ".storier_history"
	promptMain  = "==> "
	promptCont  = "... "
)

var banner = "storier REPL\nCtrl+C cancels input, Ctrl+D exits."

func registerNatives(ip *storier.Interp) {
	ip.RegisterNative("print", func(env *storier.Env, args []storier.Value) (storier.Value, error) {
		parts := make([]string, len(args))
		for i, v := range args {
			if v.Tag == storier.VTStr {
				parts[i] = v.Data.(string)
			} else {
				parts[i] = v.String()
			}
		}
		fmt.Println(strings.Join(parts, " "))
		return storier.Nil, nil
	})

	ip.RegisterNative("echo", func(env *storier.Env, args []storier.Value) (storier.Value, error) {
		if len(args) == 0 {
			return storier.Nil, nil
		}
		return args[0], nil
	})

	ip.RegisterNative("clamp", func(env *storier.Env, args []storier.Value) (storier.Value, error) {
		if len(args) != 3 {
			return storier.Nil, fmt.Errorf("clamp expects 3 arguments, got %d", len(args))
		}
		nums := make([]float64, 3)
		for i, v := range args {
			switch v.Tag {
			case storier.VTInt:
				nums[i] = float64(v.Data.(int64))
			case storier.VTNum:
				nums[i] = v.Data.(float64)
			default:
				return storier.Nil, fmt.Errorf("clamp expects numbers")
			}
		}
		x, lo, hi := nums[0], nums[1], nums[2]
		if x < lo {
			x = lo
		}
		if x > hi {
			x = hi
		}
		return storier.Num(x), nil
	})
}

func runFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	src := string(data)

	ip := storier.NewInterp()
	registerNatives(ip)
	ip.SetGlobalInt("frame", 0)
	ip.SetGlobalNum("dt", 0)

	if err := ip.RegisterEventSource("main", src); err != nil {
		fmt.Fprintln(os.Stderr, storier.WrapErrorWithName(err, path, src))
		return 1
	}
	if err := ip.TriggerEvent("main"); err != nil {
		fmt.Fprintln(os.Stderr, storier.WrapErrorWithName(err, path, src))
		return 1
	}
	return 0
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}

func runREPL() int {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	hist := historyPath()
	if hist != "" {
		if f, err := os.Open(hist); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if hist == "" {
			return
		}
		if f, err := os.Create(hist); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	ip := storier.NewInterp()
	registerNatives(ip)

	fmt.Println(banner)

	var buf []string
	for {
		prompt := promptMain
		if len(buf) > 0 {
			prompt = promptCont
		}
		input, err := line.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			buf = buf[:0]
			continue
		}
		if err == io.EOF {
			fmt.Println()
			return 0
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}

		buf = append(buf, input)
		src := strings.Join(buf, "\n") + "\n"

		v, evalErr := ip.EvalPersistentSource(src)
		if storier.IsIncomplete(evalErr) {
			continue // open block or unfinished expression: keep reading
		}

		line.AppendHistory(strings.Join(buf, " "))
		buf = buf[:0]

		if evalErr != nil {
			fmt.Fprintln(os.Stderr, storier.WrapErrorWithSource(evalErr, src))
			continue
		}
		if v.Tag != storier.VTNil {
			fmt.Println(v.String())
		}
	}
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [script.str]\n\nWith no arguments, starts an interactive REPL.\n", appName)
		flag.PrintDefaults()
	}
	flag.Parse()

	switch flag.NArg() {
	case 0:
		os.Exit(runREPL())
	case 1:
		os.Exit(runFile(flag.Arg(0)))
	default:
		flag.Usage()
		os.Exit(2)
	}
}
