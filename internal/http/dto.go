package http

import (
	"encoding/json"

	"ledgerbook/internal/core"
	"ledgerbook/internal/services"
)

type addressDTO struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	PostalCode   string `json:"postalCode"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type personRequest struct {
	Name string `json:"name"`
	// Active defaults to true when omitted.
	Active  *bool      `json:"active"`
	Address addressDTO `json:"address"`
}

type personResponse struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	Active  bool       `json:"active"`
	Address addressDTO `json:"address"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// entryRequest keeps dates and amount raw so malformed values can be told
// apart from missing ones.
type entryRequest struct {
	Description string          `json:"description"`
	DueDate     string          `json:"dueDate"`
	PaymentDate string          `json:"paymentDate"`
	Amount      json.RawMessage `json:"amount"`
	Note        string          `json:"note"`
	Type        string          `json:"type"`
	CategoryID  int64           `json:"categoryId"`
	PersonID    int64           `json:"personId"`
}

type entryResponse struct {
	ID           int64      `json:"id"`
	Description  string     `json:"description"`
	DueDate      core.Date  `json:"dueDate"`
	PaymentDate  *core.Date `json:"paymentDate,omitempty"`
	Paid         bool       `json:"paid"`
	Amount       string     `json:"amount"`
	Note         string     `json:"note,omitempty"`
	Type         string     `json:"type"`
	CategoryID   int64      `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	PersonID     int64      `json:"personId"`
	PersonName   string     `json:"personName"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Resource string `json:"resource,omitempty"`
}

func (a addressDTO) toCore() core.Address {
	return core.Address{
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		PostalCode:   a.PostalCode,
		City:         a.City,
		State:        a.State,
	}
}

func addressFromCore(a core.Address) addressDTO {
	return addressDTO{
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		PostalCode:   a.PostalCode,
		City:         a.City,
		State:        a.State,
	}
}

func (p personRequest) toCore() core.Person {
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return core.Person{Name: p.Name, Active: active, Address: p.Address.toCore()}
}

func personFromCore(p core.Person) personResponse {
	return personResponse{ID: p.ID, Name: p.Name, Active: p.Active, Address: addressFromCore(p.Address)}
}

func categoryFromCore(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name}
}

func entryFromDetails(d services.EntryDetails) entryResponse {
	return entryResponse{
		ID:           d.ID,
		Description:  d.Description,
		DueDate:      d.DueDate,
		PaymentDate:  d.PaymentDate,
		Paid:         d.Paid(),
		Amount:       core.FormatAmount(d.Amount),
		Note:         d.Note,
		Type:         d.Type.String(),
		CategoryID:   d.CategoryID,
		CategoryName: d.CategoryName,
		PersonID:     d.PersonID,
		PersonName:   d.PersonName,
	}
}
