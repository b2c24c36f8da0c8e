package cli

import (
	internalcli "github.com/SmitUplenchwar2687/Pacer/internal/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the public Pacer root command for embedding.
func NewRootCmd() *cobra.Command {
	return internalcli.NewRootCmd()
}
