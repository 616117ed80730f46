package conf

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// DBConfiguration holds all the database related configuration.
type DBConfiguration struct {
	Driver      string `envconfig:"DATABASE_DRIVER" required:"true"`
	URL         string `envconfig:"DATABASE_URL" required:"true"`
	Namespace   string `envconfig:"DATABASE_NAMESPACE"`
	Automigrate bool   `envconfig:"DATABASE_AUTOMIGRATE"`
}

// JWTConfiguration holds all the JWT related configuration. Tokens are
// minted by the external identity provider; we only verify them.
type JWTConfiguration struct {
	Secret string `json:"secret" required:"true"`
}

// GlobalConfiguration holds all the configuration that applies to the
// whole process: database, listener and logging.
type GlobalConfiguration struct {
	API struct {
		Host string
		Port int `envconfig:"PORT" default:"8080"`
	}
	DB      DBConfiguration
	Logging LoggingConfig `envconfig:"LOG"`
}

// DownloadsConfiguration controls how product download links are signed
// before being handed to a buyer.
type DownloadsConfiguration struct {
	Provider     string `json:"provider"`
	NetlifyToken string `json:"netlify_token" envconfig:"NETLIFY_TOKEN"`
}

// MailerConfiguration holds the SMTP settings used for sale
// notification emails.
type MailerConfiguration struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	User string `json:"user"`
	Pass string `json:"pass"`
	From string `json:"from"`
}

// CheckoutConfiguration tunes the checkout flow responses.
type CheckoutConfiguration struct {
	// RedirectDelay is the number of milliseconds a client should wait
	// before following a link's redirect URL after a successful sale,
	// so the buyer sees the confirmation first.
	RedirectDelay int `json:"redirect_delay" envconfig:"REDIRECT_DELAY" default:"2000"`
}

// Configuration holds all the per-service configuration.
type Configuration struct {
	SiteURL   string `envconfig:"SITE_URL" json:"site_url"`
	JWT       JWTConfiguration
	Downloads DownloadsConfiguration
	Mailer    MailerConfiguration
	Checkout  CheckoutConfiguration
}

func loadEnvironment(filename string) error {
	var err error
	if filename != "" {
		err = godotenv.Load(filename)
	} else {
		err = godotenv.Load()
		// .env is optional when running from the environment alone
		if os.IsNotExist(err) {
			return nil
		}
	}
	return err
}

// LoadGlobal will construct the global configuration from the file and the environment.
func LoadGlobal(filename string) (*GlobalConfiguration, error) {
	if err := loadEnvironment(filename); err != nil {
		return nil, errors.Wrap(err, "loading environment")
	}

	config := new(GlobalConfiguration)
	if err := envconfig.Process("stablelink", config); err != nil {
		return nil, errors.Wrap(err, "processing global configuration")
	}

	if err := ConfigureLogging(&config.Logging); err != nil {
		return nil, errors.Wrap(err, "configuring logging")
	}

	return config, nil
}

// LoadConfig loads the per-service configuration from the file and the environment.
func LoadConfig(filename string) (*Configuration, error) {
	if err := loadEnvironment(filename); err != nil {
		return nil, errors.Wrap(err, "loading environment")
	}

	config := new(Configuration)
	if err := envconfig.Process("stablelink", config); err != nil {
		return nil, errors.Wrap(err, "processing configuration")
	}
	config.ApplyDefaults()

	return config, nil
}

// ApplyDefaults fills in the values that have sane fallbacks.
func (config *Configuration) ApplyDefaults() {
	if config.Checkout.RedirectDelay == 0 {
		config.Checkout.RedirectDelay = 2000
	}
}
