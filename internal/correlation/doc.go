// Package correlation scores how issue types relate to each other: in time
// (one follows another), per account (one account keeps hitting the same
// issue), by co-occurrence within a window, and by hour-of-day profile.
package correlation
