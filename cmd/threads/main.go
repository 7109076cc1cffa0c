// Command threads is a command-line client for the Threads web API.
package main

func main() {
	Execute()
}
