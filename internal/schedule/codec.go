package schedule

import (
	"strconv"
	"strings"
)

// Parse decodes schedule text. Entries are comma separated; entries without
// the rule prefix are skipped. Decoding never fails: malformed numbers read
// as zero.
//
// Entry tokens, in any order after the prefix:
//
//	/          rule disabled
//	_<int>     on time (the legacy form <int>_ at the start of the entry is also read)
//	-<int>     off time
//	1 2 4      channels (4 = both, none = both)
//	w          every day, otherwise any of o u e h r a s (Mon..Sun)
//	n n& d d&  on at night / and time, off at day / and time
//	z          react to cloudiness
//
// The first 's' of an entry is the prefix; any later 's' is Sunday.
func Parse(text string) []Rule {
	var rules []Rule
	for _, entry := range strings.Split(text, ",") {
		if strings.IndexByte(entry, Prefix) < 0 {
			continue
		}
		rules = append(rules, parseEntry(entry))
	}
	return rules
}

func parseEntry(entry string) Rule {
	r := Rule{Enabled: true, OnTime: Unset, OffTime: Unset}
	var lights Channels
	prefixSeen := false

	// Legacy form: on time leads the entry, "480_s...".
	start := 0
	if strings.HasPrefix(entry, "/") {
		start = 1
	}
	// When "_<int>" follows, the leading run is channels instead.
	n := digitRun(entry, start)
	if n > 0 && start+n < len(entry) && entry[start+n] == '_' && !hasDigitAt(entry, start+n+1) {
		r.OnTime = atoi(entry[start : start+n])
		entry = entry[:start] + entry[start+n:]
	}

	for i := 0; i < len(entry); i++ {
		c := entry[i]
		switch {
		case c == '/':
			r.Enabled = false
		case c == '_':
			n := digitRun(entry, i+1)
			if r.OnTime == Unset || n > 0 {
				r.OnTime = atoi(entry[i+1 : i+1+n])
			}
			i += n
		case c == '-':
			n := digitRun(entry, i+1)
			r.OffTime = atoi(entry[i+1 : i+1+n])
			i += n
		case c == '1':
			lights |= Channel1
		case c == '2':
			lights |= Channel2
		case c == '4':
			lights |= BothChannels
		case c == 'w':
			r.Days.EveryDay = true
		case c == 'n':
			r.OnAtNight = true
			if i+1 < len(entry) && entry[i+1] == '&' {
				r.OnAtNightAndTime = true
				i++
			}
		case c == 'd':
			r.OffAtDay = true
			if i+1 < len(entry) && entry[i+1] == '&' {
				r.OffAtDayAndTime = true
				i++
			}
		case c == 'z':
			r.ReactToCloudiness = true
		case c == Prefix && !prefixSeen:
			prefixSeen = true
		default:
			for d, code := range weekdayCodes {
				if c == code {
					r.Days.Set |= 1 << uint(d)
				}
			}
		}
	}

	if lights == 0 {
		lights = BothChannels
	}
	r.Lights = lights
	if r.Days.EveryDay {
		r.Days.Set = 0
	}
	return r
}

func digitRun(s string, from int) int {
	n := 0
	for from+n < len(s) && s[from+n] >= '0' && s[from+n] <= '9' {
		n++
	}
	return n
}

func hasDigitAt(s string, i int) bool {
	return i < len(s) && s[i] >= '0' && s[i] <= '9'
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// Encode writes rules in canonical form, e.g. "s1_480-1020wd".
func Encode(rules []Rule) string {
	entries := make([]string, len(rules))
	for i, r := range rules {
		entries[i] = encodeRule(r)
	}
	return strings.Join(entries, ",")
}

func encodeRule(r Rule) string {
	var b strings.Builder
	b.WriteByte(Prefix)
	if !r.Enabled {
		b.WriteByte('/')
	}
	if r.Lights.Has(Channel1) {
		b.WriteByte('1')
	}
	if r.Lights.Has(Channel2) {
		b.WriteByte('2')
	}
	if r.OnTime != Unset {
		b.WriteByte('_')
		b.WriteString(strconv.Itoa(r.OnTime))
	}
	if r.OffTime != Unset {
		b.WriteByte('-')
		b.WriteString(strconv.Itoa(r.OffTime))
	}
	if r.Days.EveryDay {
		b.WriteByte('w')
	} else {
		for _, d := range encodeOrder {
			if r.Days.Set&(1<<uint(d)) != 0 {
				b.WriteByte(weekdayCodes[d])
			}
		}
	}
	if r.OnAtNight {
		b.WriteByte('n')
		if r.OnAtNightAndTime {
			b.WriteByte('&')
		}
	}
	if r.OffAtDay {
		b.WriteByte('d')
		if r.OffAtDayAndTime {
			b.WriteByte('&')
		}
	}
	if r.ReactToCloudiness {
		b.WriteByte('z')
	}
	return b.String()
}
