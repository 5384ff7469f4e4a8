package insight

import (
	"fmt"
	"strings"

	"grledger/internal/core"
)

func rp(n int64) string { return "Rp " + core.FormatNumber(n) }

// BuildPrompt renders the audit request sent to the model.
func BuildPrompt(totals core.Totals, breakdown []core.CategoryValue) string {
	parts := make([]string, 0, len(breakdown))
	for _, cv := range breakdown {
		parts = append(parts, fmt.Sprintf("%s: %s", cv.Name, rp(cv.Value)))
	}

	var b strings.Builder
	b.WriteString("BERTINDAK SEBAGAI ANALIS KEUANGAN PROFESIONAL.\n")
	b.WriteString("Analisis data bisnis:\n")
	fmt.Fprintf(&b, "- Total Omset: %s\n", rp(totals.Income))
	fmt.Fprintf(&b, "- Total Pengeluaran: %s\n", rp(totals.Expense))
	fmt.Fprintf(&b, "- Laba Bersih: %s\n", rp(totals.Profit))
	fmt.Fprintf(&b, "- Rincian Pengeluaran: %s\n\n", strings.Join(parts, ", "))
	b.WriteString("Berikan:\n")
	b.WriteString("1. SKOR KESEHATAN KEUANGAN (0-100).\n")
	b.WriteString("2. ANALISIS KRITIS: Mana pengeluaran yang tidak efisien?\n")
	b.WriteString("3. STRATEGI AKSI: 3 langkah nyata bulan depan untuk menaikkan laba.\n\n")
	b.WriteString("Bahasa: Indonesia, Tajam, Profesional, Format Markdown.\n")
	return b.String()
}
