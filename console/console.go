package console

/*
group all status console related functions here
The idea is to run the console in a goroutine

requested functionality:
	- autoscroll buffer
	- display monitor status messages
	- let the rest of the monitor log information to the console
	  using a string channel

Two implementations exist: Gui writes into a gocui view, Simple goes
straight to stdout for headless runs.
*/

// Console is the status output the monitor writes to.
type Console interface {
	WriteConsole(msg string) error
}
