package mockportal

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bizhub/portal-client/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Directory is the mock backend's in-memory account and partner
// store. Seeded with the admin account so a fresh instance is usable
// immediately.
type Directory struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	passwords map[string]string // username -> sha256 hex
	partners  map[string]*models.Partner
}

func NewDirectory() *Directory {
	d := &Directory{
		users:     make(map[string]*models.User),
		passwords: make(map[string]string),
		partners:  make(map[string]*models.Partner),
	}
	admin := &models.User{
		ID:        "u-" + uuid.NewString(),
		Username:  "admin",
		Email:     "admin@bizhub.local",
		Name:      "Administrator",
		Role:      "admin",
		TenantID:  "t-default",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	d.users[admin.ID] = admin
	d.passwords["admin"] = hashPassword("Admin1234!")
	return d
}

func hashPassword(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return hex.EncodeToString(sum[:])
}

// Authenticate returns the user when username/password match.
func (d *Directory) Authenticate(username, password string) *models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	want, ok := d.passwords[username]
	if !ok || want != hashPassword(password) {
		return nil
	}
	for _, u := range d.users {
		if u.Username == username {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (d *Directory) UserByID(id string) *models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if u, ok := d.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (d *Directory) ListUsers() []models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, *u)
	}
	return out
}

// CreateUser validates and stores a new account. The message of a
// validation error is exactly what the client surfaces to the UI.
func (d *Directory) CreateUser(u models.User, password string) (models.User, error) {
	if err := validateUser(u); err != nil {
		return models.User{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.users {
		if existing.Username == u.Username {
			return models.User{}, &ValidationError{Message: "username already taken"}
		}
	}
	now := time.Now().UTC()
	u.ID = "u-" + uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = "member"
	}
	if u.TenantID == "" {
		u.TenantID = "t-default"
	}
	d.users[u.ID] = &u
	if password != "" {
		d.passwords[u.Username] = hashPassword(password)
	}
	return u, nil
}

func (d *Directory) UpdateUser(id string, patch models.User) (models.User, error) {
	if err := validateUser(patch); err != nil {
		return models.User{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	existing, ok := d.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	existing.Username = patch.Username
	existing.Email = patch.Email
	existing.Name = patch.Name
	if patch.Role != "" {
		existing.Role = patch.Role
	}
	existing.UpdatedAt = time.Now().UTC()
	return *existing, nil
}

func (d *Directory) DeleteUser(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(d.passwords, u.Username)
	delete(d.users, id)
	return nil
}

func validateUser(u models.User) error {
	if strings.TrimSpace(u.Username) == "" {
		return &ValidationError{Message: "username is required"}
	}
	if !emailPattern.MatchString(u.Email) {
		return &ValidationError{Message: "invalid email format"}
	}
	return nil
}

func (d *Directory) ListPartners() []models.Partner {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Partner, 0, len(d.partners))
	for _, p := range d.partners {
		out = append(out, *p)
	}
	return out
}

func (d *Directory) CreatePartner(p models.Partner) (models.Partner, error) {
	if strings.TrimSpace(p.Name) == "" {
		return models.Partner{}, &ValidationError{Message: "partner name is required"}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now().UTC()
	p.ID = "p-" + uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.TenantID == "" {
		p.TenantID = "t-default"
	}
	d.partners[p.ID] = &p
	return p, nil
}

func (d *Directory) UpdatePartner(id string, patch models.Partner) (models.Partner, error) {
	if strings.TrimSpace(patch.Name) == "" {
		return models.Partner{}, &ValidationError{Message: "partner name is required"}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	existing, ok := d.partners[id]
	if !ok {
		return models.Partner{}, ErrNotFound
	}
	existing.Name = patch.Name
	existing.Grade = patch.Grade
	existing.Contact = patch.Contact
	existing.UpdatedAt = time.Now().UTC()
	return *existing, nil
}

func (d *Directory) DeletePartner(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.partners[id]; !ok {
		return ErrNotFound
	}
	delete(d.partners, id)
	return nil
}
