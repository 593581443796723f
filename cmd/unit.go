package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/format"
)

func newUnitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unit <kind> <from> <to> <value>",
		Short: "Convert a value between units",
		Long: fmt.Sprintf(`Convert a value between two units of the same kind, for example

  zoo unit length in mm 2.5

Kinds: %s.`, strings.Join(kittycad.UnitKinds, ", ")),
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[3], err)
			}
			res, err := a.client.Unit.Convert(cmd.Context(), args[0], args[1], args[2], kittycad.UnitConversionParams{
				InputValue: kittycad.F(value),
			})
			if err != nil {
				return err
			}
			if a.out.Format == format.JSONFormat {
				return a.out.JSON(res)
			}
			return a.out.Text(fmt.Sprintf("%s %s = %s %s", args[3], res.InputUnit, formatFloat(res.Output), res.OutputUnit))
		},
	}
}
