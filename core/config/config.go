package config

import (
	_ "embed"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
	HostKeyName       = "host_key"
	StateDirName      = "state"
	AppLogName        = "app.log"
)

type Configuration struct {
	configFs afero.Fs

	Motd             string `json:"motd"`
	SSHPort          int    `json:"ssh_port" validate:"gte=0,lte=65535"`
	SSHBanner        string `json:"ssh_banner"`
	AllowAnyPassword bool   `json:"allow_any_password"`

	OS OS `json:"os"`

	Shell Shell `json:"shell"`

	Users []User `json:"users" validate:"unique=Username"`

	Uname Uname `json:"uname"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

type User struct {
	Username  string   `json:"username" validate:"required"`
	UID       int      `json:"uid" validate:"gte=0"`
	Home      string   `json:"home" validate:"required"`
	Shell     string   `json:"shell" validate:"required"`
	Passwords []string `json:"passwords" validate:"unique"`
}

type OS struct {
	DefaultShell string `json:"default_shell" validate:"required"`
	DefaultPath  string `json:"default_path" validate:"required"`
}

// Shell holds session defaults applied when a shell starts.
type Shell struct {
	HistoryLimit int               `json:"history_limit" validate:"gte=0"`
	Aliases      map[string]string `json:"aliases"`
}

type Uname struct {
	KernelName       string `json:"kernel_name" validate:"required"`               // Kernel name e.g. "Linux".
	Nodename         string `json:"nodename" validate:"required,hostname_rfc1123"` // Hostname of the machine on one of its networks.
	KernelRelease    string `json:"kernel_release" validate:"required"`            // OS release e.g. "5.4.0-81-generic"
	KernelVersion    string `json:"kernel_version" validate:"required"`            // OS version e.g. "#91-Ubuntu SMP Thu Jul 15 19:09:17 UTC 2021"
	HardwarePlatform string `json:"hardware_platform" validate:"required"`         // Machine name e.g. "x86_64"
	Domainname       string `json:"domainname" validate:""`                        // NIS or YP domain name.
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// StateFs is the filesystem shells persist their session state under,
// one file per user.
func (c *Configuration) StateFs() afero.Fs {
	return afero.NewBasePathFs(c.fs(), StateDirName)
}

// HostKeyPem returns the bytes of the SSH host key.
func (c *Configuration) HostKeyPem() ([]byte, error) {
	return afero.ReadFile(c.fs(), HostKeyName)
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// FindUser looks up a configured user by name.
func (c *Configuration) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}

// GetPasswords returns allowable passwords for the given username.
func (c *Configuration) GetPasswords(username string) []string {
	var out []string
	for _, v := range c.Users {
		if v.Username == username {
			out = append(out, v.Passwords...)
		}
	}
	return out
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
