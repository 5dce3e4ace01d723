package v1

const ExtractJobKind = "ExtractJob"

type ExtractJob struct {
	Kind     string         `yaml:"kind" json:"kind" validate:"required,eq=ExtractJob"`
	Metadata Metadata       `yaml:"metadata" json:"metadata"`
	Spec     ExtractJobSpec `yaml:"spec" json:"spec"`
}

type Metadata struct {
	Name string `yaml:"name" json:"name" validate:"required"`
}

type ExtractJobSpec struct {
	Sources []Source        `yaml:"sources" json:"sources" validate:"required,min=1,unique=ID,dive"`
	Options *ExtractOptions `yaml:"options,omitempty" json:"options,omitempty"`

	// WorkDir is where remote archives are downloaded (default: the system temp directory).
	WorkDir string `yaml:"work_dir,omitempty" json:"work_dir,omitempty" template:""`

	S3   *S3Config   `yaml:"s3,omitempty" json:"s3,omitempty"`
	HTTP *HTTPConfig `yaml:"http,omitempty" json:"http,omitempty"`
}

// Source is one archive to extract.
type Source struct {
	ID string `yaml:"id" json:"id" validate:"required"`

	// Path is a local path, an s3://bucket/key URI or an http(s) URL.
	Path string `yaml:"path" json:"path" validate:"required" template:""`

	// ExtractTo overrides the parent directory of the destination.
	ExtractTo *string `yaml:"extract_to,omitempty" json:"extract_to,omitempty" template:""`
}

// ExtractOptions mirrors archive.Options. Unset fields keep the defaults.
type ExtractOptions struct {
	Recursive    *bool `yaml:"recursive,omitempty" json:"recursive,omitempty"`
	DeleteNested *bool `yaml:"delete_nested,omitempty" json:"delete_nested,omitempty"`
	CreateDir    *bool `yaml:"create_dir,omitempty" json:"create_dir,omitempty"`
	GzCreateDir  *bool `yaml:"gz_create_dir,omitempty" json:"gz_create_dir,omitempty"`
	MaxDepth     *int  `yaml:"max_depth,omitempty" json:"max_depth,omitempty" validate:"omitempty,min=1,max=256"`
}

type S3Config struct {
	Region          string `yaml:"region,omitempty" json:"region,omitempty" template:""`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty" template:"" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty" template:""`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty" template:""`
	ForcePathStyle  bool   `yaml:"force_path_style,omitempty" json:"force_path_style,omitempty"`
}

type HTTPConfig struct {
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	// Timeout in seconds.
	Timeout  *int `yaml:"timeout,omitempty" json:"timeout,omitempty" validate:"omitempty,min=1"`
	Insecure bool `yaml:"insecure,omitempty" json:"insecure,omitempty"`
}
