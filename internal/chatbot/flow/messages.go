package flow

const (
	CommandCancel = "cancelar"
	CommandAdmin  = "/admin"
	CommandLogout = "/logout"

	commandPrefix = "/"

	// AdminConfirmReply is the quick reply that confirms the admin prompt.
	AdminConfirmReply = "Sim, abrir painel"
)

const (
	SenderUser   = "user"
	SenderBot    = "bot"
	SenderSystem = "system"
)

const (
	msgWelcome           = "Olá! Sou o assistente do NoxMedia Studio. Como posso ajudar?"
	msgCancelled         = "Fluxo cancelado. Você pode começar uma nova conversa quando quiser."
	msgAdminPrompt       = "Deseja abrir o painel administrativo? Confirme para continuar."
	msgAdminGranted      = "Painel administrativo aberto. Digite /logout para sair."
	msgAdminLogout       = "Você saiu do painel administrativo."
	msgAgentsOffline     = "No momento não há atendentes disponíveis. Tente novamente mais tarde ou envie um e-mail para suporte@noxmedia.studio."
	msgTicketAlreadyOpen = "Você já possui um ticket ativo nesta sessão. Aguarde o atendimento ou finalize o ticket antes de abrir outro."
	msgAskName           = "Você será atendido por um humano. Para agilizar, informe seu nome:"
	msgNameAccepted      = "Obrigado, %s! Agora, descreva brevemente seu problema para que possamos direcionar o atendimento."
	msgNameRejected      = "Por favor, digite seu nome (não use comandos ou opções rápidas)."
	msgNoDescription     = "Descreva o problema em poucas palavras para abrirmos o ticket."
	msgTicketCreated     = "Seu ticket foi criado e encaminhado para nossa equipe!\n\nTicket: #%s\n\nAguarde, um atendente irá responder por aqui em breve. Se preferir, envie e-mail para suporte@noxmedia.studio ou acesse nosso Discord."
	msgUnknownCommand    = "Comando não reconhecido. Digite \"cancelar\" para recomeçar ou escolha uma das opções abaixo."
	msgTicketClosed      = "Ticket #%s foi finalizado pelo administrador. Iniciando nova conversa."
	msgAfterClose        = "Como posso ajudar você hoje?"
)

const (
	replyHumanOnline  = "Falar com humano"
	replyHumanOffline = "Falar com humano (indisponível no momento)"
	replyBack         = "Voltar"
	replyCancel       = "Cancelar"
)

var (
	cancelReplies  = []string{"Como usar?", "Formatos suportados", replyHumanOnline, "Comandos"}
	adminReplies   = []string{AdminConfirmReply, replyCancel}
	offlineReplies = []string{replyBack, "Discord"}
	backReplies    = []string{replyBack}
	defaultReplies = []string{replyBack, replyHumanOnline}
)

// mainMenu is the quick reply set of the welcome message.
func mainMenu(agentsOnline bool) []string {
	human := replyHumanOnline
	if !agentsOnline {
		human = replyHumanOffline
	}
	return []string{"Apoiar projeto", "Discord", "Legendas", human}
}

var greetings = map[string]struct{}{
	"oi":  {},
	"olá": {},
	"ola": {},
}

// reservedNames are phrases never accepted as a user's name. Catalog quick
// reply labels are added on top of these by NewController.
var reservedNames = []string{
	"falar com humano", "humano", "voltar", "discord", "apoio", "ajuda", "menu",
	"comandos", "cancelar", "admin", "atendente", "suporte", "projeto", "legendas",
	"como usar?", "formatos suportados", "apoiar projeto", "como contribuir",
	"roadmap", "github", "contribuir", "equipe", "sobre", "problema", "upload",
	"download", "editar legendas", "exportar legendas", "atalhos",
	"voltar ao início", "menu principal",
}
