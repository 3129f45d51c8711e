package ingestion

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Column names used by the spreadsheets this pipeline has to accept, mapped to
// the canonical field they populate.
var headerAliases = map[string]string{
	"monthly_income":        "monthly_salary",
	"salary":                "monthly_salary",
	"monthly_repayment":     "monthly_installment",
	"monthly_repayment_emi": "monthly_installment",
	"monthly_payment":       "monthly_installment",
	"emi":                   "monthly_installment",
	"date_of_approval":      "start_date",
	"phone":                 "phone_number",
}

// dateLayouts read slash and dash dates day-first. The unpadded day and month
// elements also accept zero-padded input.
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2/1/2006",
	"2/1/06",
	"2-1-2006",
}

func normalizeHeader(h string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	name := b.String()
	if canonical, ok := headerAliases[name]; ok {
		return canonical
	}
	return name
}

type record struct {
	row    int
	values map[string]string
}

func (r record) get(field string) string {
	return strings.TrimSpace(r.values[field])
}

func (t *Table) records() []record {
	columns := make([]string, len(t.Header))
	for i, h := range t.Header {
		columns[i] = normalizeHeader(h)
	}

	out := make([]record, 0, len(t.Rows))
	for i, row := range t.Rows {
		rec := record{row: i + 2, values: make(map[string]string, len(columns))}
		blank := true
		for j, col := range columns {
			if j >= len(row) || col == "" {
				continue
			}
			if _, seen := rec.values[col]; seen {
				continue
			}
			rec.values[col] = row[j]
			if strings.TrimSpace(row[j]) != "" {
				blank = false
			}
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out
}

func parseCustomerRecord(rec record) (*customer.Customer, error) {
	id, err := requiredInt(rec, "customer_id")
	if err != nil {
		return nil, err
	}
	age, err := requiredInt(rec, "age")
	if err != nil {
		return nil, err
	}
	salary, err := requiredDecimal(rec, "monthly_salary")
	if err != nil {
		return nil, err
	}
	limit, err := optionalDecimal(rec, "approved_limit")
	if err != nil {
		return nil, err
	}
	debt, err := optionalDecimal(rec, "current_debt")
	if err != nil {
		return nil, err
	}
	if limit.IsZero() {
		limit = customer.ApprovedLimitFor(salary)
	}

	c := &customer.Customer{
		CustomerID:    id,
		FirstName:     rec.get("first_name"),
		LastName:      rec.get("last_name"),
		Age:           int(age),
		PhoneNumber:   parsePhoneNumber(rec.get("phone_number")),
		MonthlySalary: salary,
		ApprovedLimit: limit,
		CurrentDebt:   debt,
	}
	if c.CustomerID <= 0 {
		return nil, apperrors.NewValidationError("customer_id", "must be positive")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseLoanRecord(rec record) (*loan.Loan, error) {
	loanID, err := requiredInt(rec, "loan_id")
	if err != nil {
		return nil, err
	}
	customerID, err := requiredInt(rec, "customer_id")
	if err != nil {
		return nil, err
	}
	amount, err := requiredDecimal(rec, "loan_amount")
	if err != nil {
		return nil, err
	}
	tenure, err := requiredInt(rec, "tenure")
	if err != nil {
		return nil, err
	}
	rate, err := requiredDecimal(rec, "interest_rate")
	if err != nil {
		return nil, err
	}
	paid, err := optionalInt(rec, "emis_paid_on_time")
	if err != nil {
		return nil, err
	}
	start, err := requiredDate(rec, "start_date")
	if err != nil {
		return nil, err
	}

	l := &loan.Loan{
		LoanID:         loanID,
		CustomerID:     customerID,
		LoanAmount:     amount,
		Tenure:         int(tenure),
		InterestRate:   rate,
		EMIsPaidOnTime: int(paid),
		StartDate:      start,
	}
	if l.LoanID <= 0 {
		return nil, apperrors.NewValidationError("loan_id", "must be positive")
	}
	if l.Tenure <= 0 {
		return nil, apperrors.NewValidationError("tenure", "must be positive")
	}
	if !amount.IsPositive() {
		return nil, apperrors.NewValidationError("loan_amount", "must be positive")
	}
	if rate.IsNegative() {
		return nil, apperrors.NewValidationError("interest_rate", "cannot be negative")
	}

	if raw := rec.get("end_date"); raw != "" {
		if l.EndDate, err = parseDate(raw); err != nil {
			return nil, apperrors.NewValidationError("end_date", err.Error())
		}
	} else {
		l.EndDate = loan.EndDateFor(start, l.Tenure)
	}

	if raw := rec.get("monthly_installment"); raw != "" {
		if l.MonthlyInstallment, err = parseDecimal(raw); err != nil {
			return nil, apperrors.NewValidationError("monthly_installment", err.Error())
		}
	} else if l.MonthlyInstallment, err = loan.CalculateEMI(amount, rate, l.Tenure); err != nil {
		return nil, apperrors.NewValidationError("monthly_installment", err.Error())
	}

	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func requiredInt(rec record, field string) (int64, error) {
	raw := rec.get(field)
	if raw == "" {
		return 0, apperrors.NewValidationError(field, "is required")
	}
	v, err := parseInt(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(field, err.Error())
	}
	return v, nil
}

func optionalInt(rec record, field string) (int64, error) {
	if rec.get(field) == "" {
		return 0, nil
	}
	return requiredInt(rec, field)
}

func requiredDecimal(rec record, field string) (decimal.Decimal, error) {
	raw := rec.get(field)
	if raw == "" {
		return decimal.Zero, apperrors.NewValidationError(field, "is required")
	}
	v, err := parseDecimal(raw)
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError(field, err.Error())
	}
	return v, nil
}

func optionalDecimal(rec record, field string) (decimal.Decimal, error) {
	if rec.get(field) == "" {
		return decimal.Zero, nil
	}
	return requiredDecimal(rec, field)
}

func requiredDate(rec record, field string) (time.Time, error) {
	raw := rec.get(field)
	if raw == "" {
		return time.Time{}, apperrors.NewValidationError(field, "is required")
	}
	t, err := parseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(field, err.Error())
	}
	return t, nil
}

// parseDecimal accepts plain numbers, thousands separators and scientific notation.
func parseDecimal(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", " ", "", "_", "").Replace(raw)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", raw)
	}
	return d, nil
}

// parseInt accepts integral values written as floats, e.g. "12.0" or "9.87654321e+09".
func parseInt(raw string) (int64, error) {
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, nil
	}
	d, err := parseDecimal(raw)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	return d.IntPart(), nil
}

func parsePhoneNumber(raw string) string {
	if raw == "" {
		return ""
	}
	if v, err := parseInt(raw); err == nil && v > 0 {
		return strconv.FormatInt(v, 10)
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return loan.DateOf(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return loan.DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a recognised date", raw)
}
