// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package models

import "slices"

// Role constants used by the casbin policy in internal/authz.
const (
	// RoleAgent answers conversations and reads system status.
	RoleAgent = "agent"

	// RoleAdmin manages the installation, including updates and restores.
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleAgent, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	return slices.Contains(ValidRoles, role)
}
