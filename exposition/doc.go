// Package exposition parses the Prometheus text exposition format into a
// table of scalar samples.
//
// Only the subset needed to recover gauge and counter values is supported:
// "# HELP" and "# TYPE" comment lines, and data lines of the form
//
//	name value
//	name{label="value",...} value
//	name{label="value",...} value timestamp
//
// Parsing never fails. Lines that cannot be understood are skipped, and
// malformed label pairs are dropped from the sample without discarding the
// line. The resulting Table is keyed by bare metric name; when several data
// lines share a name, the last one wins.
//
//	table := exposition.Parse(body)
//	if s, ok := table.Get("http_requests_total"); ok {
//	    fmt.Println(s.Value, s.Labels.Map())
//	}
package exposition
