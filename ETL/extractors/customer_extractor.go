package extractors

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/LilVoxy/order_analytics/ETL/utils"
	"github.com/go-playground/validator/v10"
)

// customerColumns maps accepted header names onto record fields.
var customerColumns = map[string]string{
	"customer_id":   "id",
	"id":            "id",
	"customer_name": "name",
	"name":          "name",
	"region":        "region",
	"signup_date":   "signup_date",
}

var customerRowFields = map[string]string{
	"ID":     "customer_id",
	"Name":   "customer_name",
	"Region": "region",
}

var requiredCustomerColumns = []string{"id", "name", "region"}

// customerRow is one CSV row before normalization. Lengths are in characters and match
// the persistent schema.
type customerRow struct {
	ID         string `validate:"required,max=64"`
	Name       string `validate:"required,max=255"`
	Region     string `validate:"max=64"`
	SignupDate string
}

// CustomerExtractor reads the flat customer table.
type CustomerExtractor struct {
	logger   *utils.ETLLogger
	validate *validator.Validate
	loc      *time.Location
}

// NewCustomerExtractor creates a CustomerExtractor. Signup dates are normalized in loc.
func NewCustomerExtractor(logger *utils.ETLLogger, loc *time.Location) *CustomerExtractor {
	return &CustomerExtractor{
		logger:   logger,
		validate: validator.New(),
		loc:      loc,
	}
}

// ExtractCustomers loads the CSV at path. Later rows replace earlier rows with the same id.
func (e *CustomerExtractor) ExtractCustomers(path string) (map[string]models.Customer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.FileNotFoundError{Path: path, Err: err}
	}
	defer f.Close()

	return e.ParseCustomers(path, f)
}

// ParseCustomers parses CSV content; source names the input in errors.
func (e *CustomerExtractor) ParseCustomers(source string, r io.Reader) (map[string]models.Customer, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, &models.ValidationError{Source: source, Record: "line 1", Msg: "missing header row"}
	}
	if err != nil {
		return nil, csvParseError(source, err)
	}

	index := make(map[string]int)
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if field, ok := customerColumns[key]; ok {
			if _, seen := index[field]; !seen {
				index[field] = i
			}
		}
	}
	for _, field := range requiredCustomerColumns {
		if _, ok := index[field]; !ok {
			return nil, &models.ValidationError{Source: source, Record: "line 1", Field: field, Msg: "missing required column"}
		}
	}

	customers := make(map[string]models.Customer)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvParseError(source, err)
		}
		line, _ := reader.FieldPos(0)

		if isBlankRecord(record) {
			continue
		}

		row := customerRow{
			ID:         column(record, index, "id"),
			Name:       column(record, index, "name"),
			Region:     column(record, index, "region"),
			SignupDate: column(record, index, "signup_date"),
		}
		customer, err := e.normalize(source, line, row)
		if err != nil {
			return nil, err
		}

		if prev, dup := customers[customer.ID]; dup {
			e.logger.Debug("customer %s at line %d replaces %q", customer.ID, line, prev.Name)
		}
		customers[customer.ID] = customer
	}

	return customers, nil
}

func (e *CustomerExtractor) normalize(source string, line int, row customerRow) (models.Customer, error) {
	record := fmt.Sprintf("line %d", line)

	if err := e.validate.Struct(row); err != nil {
		return models.Customer{}, fieldValidationError(source, record, err, customerRowFields)
	}

	customer := models.Customer{
		ID:     row.ID,
		Name:   row.Name,
		Region: row.Region,
	}
	if row.SignupDate != "" {
		date, err := models.NormalizeDate(row.SignupDate, e.loc)
		if err != nil {
			return models.Customer{}, &models.ValidationError{Source: source, Record: record, Field: "signup_date", Msg: err.Error(), Err: err}
		}
		customer.SignupDate = date
	}
	return customer, nil
}

func column(record []string, index map[string]int, field string) string {
	i, ok := index[field]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func csvParseError(source string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &models.ParseError{Source: source, Line: pe.Line, Msg: "malformed csv", Err: pe.Err}
	}
	return &models.ParseError{Source: source, Msg: "malformed csv", Err: err}
}
