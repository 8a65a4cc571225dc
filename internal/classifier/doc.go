// Package classifier maps outbound request URLs to short service names used
// as metric labels.
//
// A Table is an ordered list of named regular expressions. Classification
// scans the table in order and returns the name of the first pattern found
// anywhere in the URL. Tables are built once at startup through a Builder,
// which lets configuration override a built-in entry without changing its
// position, and are never modified afterwards.
//
//	table, err := classifier.NewBuilder().
//	    Register(classifier.DefaultEntries()...).
//	    Register(overrides...).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	c := classifier.New(table, classifier.WithLogger(logger))
//	name, ok := c.Classify("https://api.ft.com/content/abc")
package classifier
