// Command shortlinksctl manages short links straight from the database.
package main

import (
	"github.com/spf13/cobra"
)

func main() {
	cobra.CheckErr(newRootCmd().Execute())
}
