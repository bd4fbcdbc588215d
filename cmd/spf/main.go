// Command spf serves and inspects an SPF application that only uses the
// framework's own types. Projects with their own controllers build the same
// commands with console.Execute and their service providers.
package main

import "github.com/km-arc/go-spf/framework/console"

func main() {
	console.Execute(console.Options{Name: "spf"})
}
