package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"m65832/console"
	"m65832/logger"
	"m65832/system"

	"github.com/jroimartin/gocui"
)

var (
	imagePath = flag.String("image", "", "memory image to load at the load address")
	loadAddr  = flag.Uint("load", system.BootBase, "physical load address for the image")
	logPath   = flag.String("log", "m65832.log", "log file path (empty for stdout)")
	headless  = flag.Bool("headless", false, "run without the terminal monitor")
	debugMode = flag.Bool("debug", false, "verbose front end logging")
)

func main() {
	flag.Parse()

	if *headless {
		runHeadless()
		return
	}

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Couldn't create gui!")
		os.Exit(1)
	}
	defer g.Close()

	g.SetManagerFunc(layout)

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// start emulation
	g.Update(startFrontEnd)

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runHeadless boots without the monitor views; useful for smoke runs
// and scripted use.
func runHeadless() {
	c := console.NewSimple()
	sys := system.InitializeSystem(c, nil, nil, *debugMode, logger.New(*logPath))
	if !loadFlagImage(sys, c) {
		sys.Boot()
		return
	}
	sys.Run()
	_ = c.WriteConsole(sys.DumpRegisters() + "\n")
}

func loadFlagImage(sys *system.System, c console.Console) bool {
	if *imagePath == "" {
		return false
	}
	data, err := os.ReadFile(*imagePath)
	if err != nil {
		_ = c.WriteConsole(fmt.Sprintf("can't read image %s: %v\n", *imagePath, err))
		return false
	}
	sys.LoadImage(data, uint32(*loadAddr))
	return true
}

// startFrontEnd boots the M65832 and attaches the monitor views.
func startFrontEnd(g *gocui.Gui) error {
	statusView, err := g.View("status")
	if err != nil {
		return err
	}
	statusView.Clear()

	consoleView, err := g.View("console")
	if err != nil {
		return err
	}
	consoleView.Clear()

	regView, err := g.View("registers")
	if err != nil {
		return err
	}
	regView.Clear()

	fmt.Fprintf(statusView, "Starting M65832 front end monitor..\n")
	c := console.NewGui(g)
	sys := system.InitializeSystem(c, consoleView, regView, *debugMode, logger.New(*logPath))

	// update the register and trace views once a second
	updateViews(sys, g)

	go func() {
		if loadFlagImage(sys, c) {
			sys.Run()
			return
		}
		sys.Boot()
	}()

	return nil
}

// updateViews refreshes the register and trace displays.
// Has to run via Update -> gocui allows changing a view only there.
func updateViews(sys *system.System, g *gocui.Gui) {
	ticker := time.NewTicker(time.Second * 1)

	go func() {
		for range ticker.C {
			g.Update(func(g *gocui.Gui) error {
				v, err := g.View("registers")
				if err != nil {
					return err
				}
				v.Clear()
				fmt.Fprintf(v, "%s\n%s  <steps: %d>", sys.DumpRegisters(), sys.DumpMMU(), sys.Steps())

				t, err := g.View("console")
				if err != nil {
					return err
				}
				t.Clear()
				for _, line := range sys.Front.Trace.Lines() {
					fmt.Fprintln(t, line)
				}
				return nil
			})
		}
	}()
}

// gocui layout
func layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// up -> instruction trace
	if v, err := g.SetView("console", 0, 0, maxX-1, maxY-18); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Trace"
	}

	// middle -> register values
	if v, err := g.SetView("registers", 0, maxY-17, maxX-1, maxY-14); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Registers"
	}
	// down -> status
	if v, err := g.SetView("status", 0, maxY-13, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
	}
	return nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}
