package extractors

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/LilVoxy/order_analytics/ETL/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testLogger = utils.WrapLogger(zap.NewNop(), false)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const customersCSV = "\ufeffcustomer_id,customer_name,mobile_number,region\n" +
	"1,Rohan Gupta,9876543210,North\n" +
	"2, Asha Rao ,9876500000, South \n" +
	"\n" +
	"3,Vikram Singh,,North\n"

const ordersXML = `<?xml version="1.0" encoding="UTF-8"?>
<orders>
  <order>
    <order_id>o1</order_id>
    <customer_id>1</customer_id>
    <order_date_time>2024-01-31T20:00:00Z</order_date_time>
    <items>
      <item><sku_id>s1</sku_id><sku_count>2</sku_count><total_amount>10.50</total_amount></item>
      <item><sku_id>s2</sku_id><total_amount>4.25</total_amount></item>
    </items>
  </order>
  <order>
    <order_id>o2</order_id>
    <customer_id>999</customer_id>
    <order_date>2024-02-03</order_date>
    <channel>web</channel>
    <items/>
  </order>
  <order>
    <order_id>o3</order_id>
    <order_date>2024-02-04 09:15:00</order_date>
    <items>
      <item><sku_id>s3</sku_id><amount>1.005</amount></item>
    </items>
  </order>
</orders>`

func TestExtractCustomers(t *testing.T) {
	path := writeFile(t, "customers.csv", customersCSV)

	customers, err := NewCustomerExtractor(testLogger, kolkata(t)).ExtractCustomers(path)
	require.NoError(t, err)

	assert.Len(t, customers, 3)
	assert.Equal(t, models.Customer{ID: "1", Name: "Rohan Gupta", Region: "North"}, customers["1"])
	assert.Equal(t, models.Customer{ID: "2", Name: "Asha Rao", Region: "South"}, customers["2"])
}

func TestCustomersLastWriteWins(t *testing.T) {
	csv := "id,name,region,signup_date\n" +
		"7,First Name,East,2023-01-02\n" +
		"7,Second Name,West,\n"

	customers, err := NewCustomerExtractor(testLogger, time.UTC).ParseCustomers("inline", strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, models.Customer{ID: "7", Name: "Second Name", Region: "West"}, customers["7"])
}

func TestCustomersSignupDate(t *testing.T) {
	csv := "id,name,region,signup_date\n1,A,North,2023-05-06T22:30:00Z\n"

	customers, err := NewCustomerExtractor(testLogger, kolkata(t)).ParseCustomers("inline", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, "2023-05-07", customers["1"].SignupDate)
}

func TestCustomersLengthLimitsInclusive(t *testing.T) {
	id := strings.Repeat("7", 64)
	name := strings.Repeat("é", 255)
	csv := "id,name,region\n" + id + "," + name + "," + strings.Repeat("N", 64) + "\n"

	customers, err := NewCustomerExtractor(testLogger, time.UTC).ParseCustomers("inline", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, name, customers[id].Name)
}

func TestCustomersErrors(t *testing.T) {
	tests := []struct {
		name  string
		csv   string
		check func(t *testing.T, err error)
	}{
		{
			name: "missing id names the line",
			csv:  "customer_id,customer_name,region\n1,A,North\n,B,South\n",
			check: func(t *testing.T, err error) {
				var ve *models.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "customer_id", ve.Field)
				assert.Equal(t, "line 3", ve.Record)
			},
		},
		{
			name: "missing name",
			csv:  "customer_id,customer_name,region\n1,,North\n",
			check: func(t *testing.T, err error) {
				var ve *models.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "customer_name", ve.Field)
			},
		},
		{
			name: "missing region column",
			csv:  "customer_id,customer_name\n1,A\n",
			check: func(t *testing.T, err error) {
				var ve *models.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "region", ve.Field)
			},
		},
		{
			name: "malformed quoting",
			csv:  "customer_id,customer_name,region\n1,\"A,North\n",
			check: func(t *testing.T, err error) {
				var pe *models.ParseError
				require.True(t, errors.As(err, &pe))
			},
		},
		{
			name: "id longer than 64 characters",
			csv:  "customer_id,customer_name,region\n" + strings.Repeat("7", 65) + ",A,North\n",
			check: func(t *testing.T, err error) {
				var ve *models.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "customer_id", ve.Field)
				assert.Contains(t, ve.Msg, "longer than 64")
			},
		},
		{
			name: "name longer than 255 characters",
			csv:  "customer_id,customer_name,region\n1," + strings.Repeat("é", 256) + ",North\n",
			check: func(t *testing.T, err error) {
				var ve *models.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "customer_name", ve.Field)
			},
		},
		{
			name: "region longer than 64 characters",
			csv:  "customer_id,customer_name,region\n1,A," + strings.Repeat("N", 65) + "\n",
			check: func(t *testing.T, err error) {
				var ve *models.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "region", ve.Field)
			},
		},
		{
			name: "bad signup date",
			csv:  "id,name,region,signup_date\n1,A,North,yesterday\n",
			check: func(t *testing.T, err error) {
				var ve *models.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "signup_date", ve.Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCustomerExtractor(testLogger, time.UTC).ParseCustomers("inline", strings.NewReader(tt.csv))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestExtractCustomersMissingFile(t *testing.T) {
	_, err := NewCustomerExtractor(testLogger, time.UTC).ExtractCustomers(filepath.Join(t.TempDir(), "nope.csv"))

	var nf *models.FileNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExtractOrders(t *testing.T) {
	path := writeFile(t, "orders.xml", ordersXML)

	orders, err := NewOrderExtractor(testLogger, kolkata(t)).ExtractOrders(path)
	require.NoError(t, err)
	require.Len(t, orders, 3)

	first := orders[0]
	assert.Equal(t, "o1", first.ID)
	assert.Equal(t, "1", first.CustomerID)
	// 20:00 UTC is already the next day in Asia/Kolkata
	assert.Equal(t, "2024-02-01", first.OrderDate)
	assert.Equal(t, models.Money(1475), first.Amount)
	assert.Equal(t, []models.LineItem{
		{SKU: "s1", Quantity: 2, Amount: 1050},
		{SKU: "s2", Quantity: 1, Amount: 425},
	}, first.Items)

	assert.Equal(t, models.Money(0), orders[1].Amount)
	assert.Empty(t, orders[1].Items)

	assert.Equal(t, "", orders[2].CustomerID)
	assert.Equal(t, "2024-02-04", orders[2].OrderDate)
	assert.Equal(t, models.Money(101), orders[2].Amount)
}

func TestOrdersErrors(t *testing.T) {
	wrap := func(body string) string { return "<orders>" + body + "</orders>" }
	order := func(inner string) string {
		return "<order><order_id>o1</order_id><customer_id>1</customer_id><order_date>2024-01-01</order_date>" + inner + "</order>"
	}

	tests := []struct {
		name      string
		xml       string
		wantParse bool
		field     string
	}{
		{"wrong root", "<order></order>", true, ""},
		{"malformed nesting", wrap("<order><order_id>o1</customer_id></order>"), true, ""},
		{"unterminated document", "<orders><order>", true, ""},
		{"item outside items", wrap(order("<item><amount>1</amount></item>")), true, ""},
		{"missing items", wrap(order("")), true, ""},
		{"element inside leaf", wrap("<order><order_id><x>1</x></order_id><order_date>2024-01-01</order_date><items/></order>"), true, ""},
		{"two roots", "<orders></orders><orders></orders>", true, ""},
		{"missing order id", wrap("<order><customer_id>1</customer_id><order_date>2024-01-01</order_date><items/></order>"), false, "order_id"},
		{"missing order date", wrap("<order><order_id>o1</order_id><items/></order>"), false, "order_date"},
		{"bad order date", wrap("<order><order_id>o1</order_id><order_date>soon</order_date><items/></order>"), false, "order_date"},
		{"non-numeric amount", wrap(order("<items><item><amount>ten</amount></item></items>")), false, "amount"},
		{"negative amount", wrap(order("<items><item><amount>-1.00</amount></item></items>")), false, "amount"},
		{"missing amount", wrap(order("<items><item><sku_id>s</sku_id></item></items>")), false, "amount"},
		{"amount beyond int64 cents", wrap(order("<items><item><amount>1e30</amount></item></items>")), false, "amount"},
		{"order total beyond int64 cents", wrap(order("<items><item><amount>92233720368547758.07</amount></item><item><amount>0.01</amount></item></items>")), false, "amount"},
		{"order id longer than 64 characters", wrap("<order><order_id>" + strings.Repeat("o", 65) + "</order_id><order_date>2024-01-01</order_date><items/></order>"), false, "order_id"},
		{"customer id longer than 64 characters", wrap("<order><order_id>o1</order_id><customer_id>" + strings.Repeat("9", 65) + "</customer_id><order_date>2024-01-01</order_date><items/></order>"), false, "customer_id"},
		{"sku longer than 64 characters", wrap(order("<items><item><sku_id>" + strings.Repeat("s", 65) + "</sku_id><amount>1</amount></item></items>")), false, "sku_id"},
		{"bad quantity", wrap(order("<items><item><quantity>x</quantity><amount>1</amount></item></items>")), false, "quantity"},
		{"duplicate order id", wrap(order("<items/>") + order("<items/>")), false, "order_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrderExtractor(testLogger, time.UTC).ParseOrders("inline", strings.NewReader(tt.xml))
			require.Error(t, err)

			if tt.wantParse {
				var pe *models.ParseError
				assert.True(t, errors.As(err, &pe), "want ParseError, got %T: %v", err, err)
				return
			}
			var ve *models.ValidationError
			require.True(t, errors.As(err, &ve), "want ValidationError, got %T: %v", err, err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestExtractOrdersMissingFile(t *testing.T) {
	_, err := NewOrderExtractor(testLogger, time.UTC).ExtractOrders(filepath.Join(t.TempDir(), "missing.xml"))

	var nf *models.FileNotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestExtractorWrapsPhaseErrors(t *testing.T) {
	customers := writeFile(t, "customers.csv", customersCSV)
	e := NewExtractor(testLogger, time.UTC)

	_, err := e.Extract(customers, filepath.Join(t.TempDir(), "missing.xml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract orders")

	var nf *models.FileNotFoundError
	assert.True(t, errors.As(err, &nf))

	orders := writeFile(t, "orders.xml", ordersXML)
	data, err := e.Extract(customers, orders)
	require.NoError(t, err)
	assert.Len(t, data.Customers, 3)
	assert.Len(t, data.Orders, 3)
}
