package domain

import (
	"encoding/json"
	"time"
)

type AccountType string

const (
	AccountCustomer AccountType = "customer"
	AccountAdmin    AccountType = "admin"
)

func (a AccountType) Valid() bool {
	return a == AccountCustomer || a == AccountAdmin
}

type User struct {
	ID          int64       `json:"id"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Email       string      `json:"email"`
	AccountType AccountType `json:"accountType"`
	Status      bool        `json:"status"`
	Address     Address     `json:"-"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u User) IsAdmin() bool { return u.AccountType == AccountAdmin }

type userAlias User

type userJSON struct {
	userAlias
	Address json.RawMessage `json:"address,omitempty"`
}

func (u User) MarshalJSON() ([]byte, error) {
	addr, err := EncodeAddress(u.Address)
	if err != nil {
		return nil, err
	}
	return json.Marshal(userJSON{userAlias: userAlias(u), Address: addr})
}

func (u *User) UnmarshalJSON(data []byte) error {
	var aux userJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	addr, err := DecodeAddress(aux.Address)
	if err != nil {
		return err
	}
	*u = User(aux.userAlias)
	u.Address = addr
	return nil
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// CreateUserRequest is used both by public signup and by admins creating accounts.
type CreateUserRequest struct {
	FirstName   string      `json:"firstName" validate:"required,max=80"`
	LastName    string      `json:"lastName" validate:"required,max=80"`
	Email       string      `json:"email" validate:"required,email"`
	Password    string      `json:"password" validate:"required,min=6"`
	AccountType AccountType `json:"accountType" validate:"omitempty,oneof=customer admin"`
	Address     Address     `json:"-"`
}

type UpdateUserRequest struct {
	FirstName   *string      `json:"firstName,omitempty" validate:"omitempty,min=1,max=80"`
	LastName    *string      `json:"lastName,omitempty" validate:"omitempty,min=1,max=80"`
	Email       *string      `json:"email,omitempty" validate:"omitempty,email"`
	AccountType *AccountType `json:"accountType,omitempty" validate:"omitempty,oneof=customer admin"`
	Address     Address      `json:"-"`
}

type UpdateUserStatusRequest struct {
	IsActive bool `json:"isActive"`
}

type createUserAlias CreateUserRequest

type createUserJSON struct {
	createUserAlias
	Address json.RawMessage `json:"address,omitempty"`
}

func (r CreateUserRequest) MarshalJSON() ([]byte, error) {
	addr, err := EncodeAddress(r.Address)
	if err != nil {
		return nil, err
	}
	return json.Marshal(createUserJSON{createUserAlias: createUserAlias(r), Address: addr})
}

func (r *CreateUserRequest) UnmarshalJSON(data []byte) error {
	var aux createUserJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	addr, err := DecodeAddress(aux.Address)
	if err != nil {
		return err
	}
	*r = CreateUserRequest(aux.createUserAlias)
	r.Address = addr
	return nil
}

type updateUserAlias UpdateUserRequest

type updateUserJSON struct {
	updateUserAlias
	Address json.RawMessage `json:"address,omitempty"`
}

func (r UpdateUserRequest) MarshalJSON() ([]byte, error) {
	addr, err := EncodeAddress(r.Address)
	if err != nil {
		return nil, err
	}
	return json.Marshal(updateUserJSON{updateUserAlias: updateUserAlias(r), Address: addr})
}

func (r *UpdateUserRequest) UnmarshalJSON(data []byte) error {
	var aux updateUserJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	addr, err := DecodeAddress(aux.Address)
	if err != nil {
		return err
	}
	*r = UpdateUserRequest(aux.updateUserAlias)
	r.Address = addr
	return nil
}
