package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"fiscampos/internal/brl"
	"fiscampos/pkg/models"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1).
			MarginRight(1)

	cardTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	cardValueStyle = lipgloss.NewStyle().
			Bold(true)

	localValueStyle = cardValueStyle.
			Foreground(lipgloss.Color("#A6E3A1"))

	foreignValueStyle = cardValueStyle.
				Foreground(lipgloss.Color("#F9E2AF"))
)

func card(title, value, detail string, valueStyle lipgloss.Style) string {
	body := cardTitleStyle.Render(title) + "\n" + valueStyle.Render(value)
	if detail != "" {
		body += "\n" + cardTitleStyle.Render(detail)
	}
	return cardStyle.Render(body)
}

// RenderSummary renders the summary cards. homeName labels the local bucket.
func RenderSummary(stats models.SummaryStatistics, homeName string) string {
	cards := []string{
		card("Serviços (Bruto)", brl.Currency(stats.TotalGrossValue),
			fmt.Sprintf("%d notas (%d canceladas)", stats.RecordCount, stats.CancelledCount), cardValueStyle),
		card("Deduções", brl.Currency(stats.TotalDeductions), "", cardValueStyle),
		card("Total ISS", brl.Currency(stats.TotalTax), "", cardValueStyle),
		card("Dentro de "+homeName, brl.Currency(stats.LocalGrossValue),
			brl.Percent(stats.LocalGrossValue, stats.TotalGrossValue)+" do bruto", localValueStyle),
		card("Fora de "+homeName, brl.Currency(stats.ForeignGrossValue),
			brl.Percent(stats.ForeignGrossValue, stats.TotalGrossValue)+" do bruto", foreignValueStyle),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}
