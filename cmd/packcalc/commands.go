package main

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kitchenledger/backend/config"
	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
	"github.com/kitchenledger/backend/internal/usecase"
)

type app struct {
	logLevel  string
	converter *usecase.UnitConverter
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "packcalc",
		Short:        "Parse vendor pack sizes, price packs and convert units",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var log *zap.Logger
			if a.logLevel != "" {
				log = logger.New(a.logLevel, "console")
			}
			a.converter = usecase.NewUnitConverter(log)
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log to stderr at this level (debug, info, warn, error)")

	root.AddCommand(
		a.parseCmd(),
		a.costCmd(),
		a.convertCmd(),
		validateConfigCmd(),
	)
	return root
}

func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "parse <pack-size>",
		Short:   "Show the structure of a pack-size string",
		Example: `  packcalc parse "4 x 10 lb"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pack, ok := a.converter.ParsePackSize(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", domain.ErrUnparseablePackSize, args[0])
			}
			total, base, err := a.converter.CalculateTotalQuantity(args[0], 1)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pattern: %s\n", pack.PatternType)
			fmt.Fprintf(out, "count:   %d\n", pack.Count)
			fmt.Fprintf(out, "size:    %s %s\n", pack.Size, pack.Unit)
			fmt.Fprintf(out, "total:   %s %s\n", total, base)
			return nil
		},
	}
}

func (a *app) costCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "cost <pack-price> <pack-size>",
		Short:   "Derive the cost per base unit from a pack price",
		Example: `  packcalc cost 120 "4 x 10 lb"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("%w: pack price %q is not a number", domain.ErrInvalidPrice, args[0])
			}
			cost, err := a.converter.CalculateUnitCostFromPack(price, args[1])
			if err != nil {
				return err
			}
			printUnitCost(cmd.OutOrStdout(), cost)
			return nil
		},
	}
}

func printUnitCost(out io.Writer, cost domain.UnitCost) {
	fmt.Fprintf(out, "cost per %s: %s\n", cost.BaseUnit, cost.CostPerUnit)
	if cost.CostPerPiece != nil {
		fmt.Fprintf(out, "cost per piece: %s\n", cost.CostPerPiece)
	}
}

func (a *app) convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "convert <quantity> <from-unit> <to-unit>",
		Short:   "Convert a quantity between units of the same kind",
		Example: `  packcalc convert 2 cups "fl oz"`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("%w: quantity %q is not a number", domain.ErrInvalidRequest, args[0])
			}
			out, err := a.converter.ConvertRecipeToPackUnit(qty, args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", out, args[2])
			return nil
		},
	}
}

func validateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config <file>",
		Short: "Check a match configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadMatchConfig(args[0])
			if err != nil {
				return err
			}
			t := cfg.Thresholds()
			fmt.Fprintf(cmd.OutOrStdout(), "ok: version %s (auto %.2f, review %.2f, min %.2f, filter %.2f)\n",
				cfg.Version(), t.AutoMatch, t.ReviewMatch, t.MinSimilarity, t.TrigramFilter)
			return nil
		},
	}
}
