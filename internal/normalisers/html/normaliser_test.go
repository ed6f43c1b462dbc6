package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, "html", n.Name())
	assert.ElementsMatch(t, []string{".html", ".htm"}, n.Extensions())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_ExtractsText(t *testing.T) {
	input := `<!DOCTYPE html>
<html>
<head><title>Statement</title><style>body { color: red; }</style></head>
<body>
<script>var x = 1;</script>
<!-- generated -->
<h1>Payout Statement</h1>
<p>Partner: Acme&nbsp;Corp &amp; Co</p>
<p>Period:<br/>March 2024</p>
</body>
</html>`

	got, err := New().Normalise(context.Background(), []byte(input))
	require.NoError(t, err)

	assert.Equal(t, "Payout Statement\nPartner: Acme Corp & Co\nPeriod:\nMarch 2024", got)
}

func TestNormalise_TableRowsStayOnOneLine(t *testing.T) {
	input := `<table>
<tr><th>Item</th><th>Amount</th></tr>
<tr><td>Service fee</td><td>-50.00</td></tr>
</table>`

	got, err := New().Normalise(context.Background(), []byte(input))
	require.NoError(t, err)

	assert.Equal(t, "Item | Amount\nService fee | -50.00", got)
}

func TestNormalise_Empty(t *testing.T) {
	got, err := New().Normalise(context.Background(), []byte("<div>  </div>"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
