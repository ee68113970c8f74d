// cmd/scrolly/main.go
//
// This is the entry point for the scrolly CLI.
// Running `scrolly` in a project directory opens the story in the terminal;
// `scrolly trace` replays a scroll sweep without one.

package main

func main() {
	Execute()
}
