// Command shopctl is the operator CLI of the battery shop.
package main

func main() {
	Execute()
}
