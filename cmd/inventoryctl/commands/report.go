package commands

import (
	"context"
	"fmt"
	"strconv"

	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/internal/service"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var lowStockOnly bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print reports",
}

// reportStockCmd prints every item with its variants, flagging low stock.
var reportStockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Current stock per item and size",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := connect()
		if err != nil {
			return err
		}

		reports := service.NewReportService(repository.NewStore(db))
		operator := service.Actor{Name: "inventoryctl", Role: model.RoleAdmin}
		items, err := reports.StockReport(context.Background(), operator)
		if err != nil {
			return err
		}

		threshold := cfg.App.LowStockThreshold
		if lowStockOnly {
			items = filterLowStock(items, threshold)
		}
		if len(items) == 0 {
			muted("No items")
			return nil
		}

		fmt.Println(renderStockTable(items, threshold))
		if low := len(filterLowStock(items, threshold)); low > 0 {
			warning("%d item(s) below %d", low, threshold)
		}
		return nil
	},
}

func init() {
	reportStockCmd.Flags().BoolVar(&lowStockOnly, "low", false, "Only items below LOW_STOCK_THRESHOLD")
	reportCmd.AddCommand(reportStockCmd)
	rootCmd.AddCommand(reportCmd)
}

func filterLowStock(items []model.Item, threshold int) []model.Item {
	var out []model.Item
	for _, it := range items {
		if it.Stock < threshold {
			out = append(out, it)
		}
	}
	return out
}

// stockRows flattens items to one row per variant; a sizeless item gets a
// single row with "-" as size.
func stockRows(items []model.Item) [][]string {
	var rows [][]string
	for _, it := range items {
		category := "-"
		if it.Category != nil {
			category = it.Category.Name
		}
		unit := ""
		if it.Unit != nil {
			unit = it.Unit.Symbol
		}
		if len(it.Sizes) == 0 {
			rows = append(rows, []string{it.Code, it.Name, category, "-", strconv.Itoa(it.Stock), strconv.Itoa(it.Stock), unit})
			continue
		}
		for _, s := range it.Sizes {
			rows = append(rows, []string{it.Code, it.Name, category, s.Size, strconv.Itoa(s.Stock), strconv.Itoa(it.Stock), unit})
		}
	}
	return rows
}

func renderStockTable(items []model.Item, threshold int) string {
	rows := stockRows(items)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("CODE", "NAME", "CATEGORY", "SIZE", "STOCK", "TOTAL", "UNIT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(rows) {
				if total, err := strconv.Atoi(rows[row][5]); err == nil && total < threshold {
					return lowCellStyle
				}
			}
			return cellStyle
		})
	return t.Render()
}
