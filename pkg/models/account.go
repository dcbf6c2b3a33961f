package models

import "strings"

// Domain derives a human-readable workspace domain from the external account
// id. Only some connectors encode one; everything else yields "".
//
// SALESFORCE and ZENDESK encode "<id>|<email>|<domain>"; CONFLUENCE encodes
// "<id>|<email>|<site>/<workspace>".
func (d *DataSource) Domain() string {
	extID := d.DataSourceExternalID
	if extID == "" {
		return ""
	}
	parts := strings.Split(extID, "|")

	switch d.DataSourceType {
	case "SALESFORCE", "ZENDESK":
		if len(parts) == 3 {
			return parts[2]
		}
	case "CONFLUENCE":
		if len(parts) == 3 {
			workspaceParts := strings.Split(parts[2], "/")
			if len(workspaceParts) == 2 {
				return workspaceParts[1]
			}
		}
	}
	return ""
}

// Email extracts the account email embedded in the external account id.
// Formats seen in the wild are "<id>|<email>|..." and "<id>-<email>".
func (d *DataSource) Email() string {
	extID := d.DataSourceExternalID
	if extID == "" {
		return ""
	}
	if strings.Contains(extID, "|") {
		parts := strings.Split(extID, "|")
		if len(parts) > 1 {
			return parts[1]
		}
		return ""
	}
	if strings.Contains(extID, "-") {
		parts := strings.Split(extID, "-")
		if len(parts) > 1 {
			return parts[1]
		}
	}
	return ""
}
