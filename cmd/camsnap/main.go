// Command camsnap captures still images from IP cameras.
package main

func main() {
	Execute()
}
