package mail

type MailType string

const (
	SiteReady      MailType = "SiteReady"
	OrderDelivered MailType = "OrderDelivered"
)

type MailData interface {
	GetMailType() MailType
	GetSubject() string
}

type SiteReadyData struct {
	CustomerName string
	SiteURL      string
	Year         string
}

func (s SiteReadyData) GetMailType() MailType {
	return SiteReady
}

func (s SiteReadyData) GetSubject() string {
	return "Your site is ready for review!"
}

type OrderDeliveredData struct {
	CustomerName  string
	SiteURL       string
	RepositoryURL string
	Year          string
}

func (s OrderDeliveredData) GetMailType() MailType {
	return OrderDelivered
}

func (s OrderDeliveredData) GetSubject() string {
	return "Your order was delivered"
}
