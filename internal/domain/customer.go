package domain

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Customer контактные данные покупателя, сохраняемые в заказе.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Normalize обрезает пробелы по краям всех полей.
func (c Customer) Normalize() Customer {
	return Customer{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
	}
}

// Validate возвращает список замечаний к данным покупателя; пустой список — данные корректны.
func (c Customer) Validate() []string {
	c = c.Normalize()
	var problems []string
	if c.Name == "" {
		problems = append(problems, "name is required")
	}
	if !IsEmail(c.Email) {
		problems = append(problems, "email is invalid")
	}
	if c.Address == "" {
		problems = append(problems, "address is required")
	}
	return problems
}

// IsEmail проверяет формат "что-то@что-то.что-то" без пробелов.
func IsEmail(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	return emailPattern.MatchString(value)
}
