package seedfile

// Entry is a single item definition in the seed YAML.
// Either url (a link) or note (a free-text note) must be set.
type Entry struct {
	Title    string   `yaml:"title"`
	URL      string   `yaml:"url"`
	Note     string   `yaml:"note"`
	SiteName string   `yaml:"siteName"`
	Tags     []string `yaml:"tags"`
	Starred  bool     `yaml:"starred"`
}

// File is the root structure of a seed file: a flat list of entries.
type File []Entry
