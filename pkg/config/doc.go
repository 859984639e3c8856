// Package config defines the YAML configuration schema for the exhibit
// export engine and the loading pipeline around it: parse, apply defaults,
// apply EXHIBIT_* environment overrides, validate.
//
// A minimal configuration file:
//
//	storage:
//	  backend: sqlite
//	  sqlite:
//	    path: /var/lib/exhibit/exports.db
//	casedata:
//	  sqlite:
//	    path: /var/lib/clearcourse/casedata.db
//	redaction:
//	  rules_dir: /etc/exhibit/rules
//	retention:
//	  enabled: true
//	  days: 365
//
// Every field has a default; an empty file is a valid configuration.
package config
